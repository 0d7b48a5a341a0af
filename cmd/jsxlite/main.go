package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recera/jsxlite/pkg/compiler"
)

var (
	version = compiler.Version
	commit  = "dev"
	date    = "unknown"
)

// projectDir is the directory holding jsxlite.yaml.
var projectDir string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "jsxlite",
		Short: "jsxlite - write a component once, compile it to many frameworks",
		Long: `jsxlite compiles components written in a restricted JSX dialect
(.lite.tsx files) into React, Vue and Liquid source, or into a JSON dump of
the parsed component.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory containing jsxlite.yaml")

	// Add commands
	rootCmd.AddCommand(newCompileCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newPreviewCommand())
	rootCmd.AddCommand(newCacheCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
