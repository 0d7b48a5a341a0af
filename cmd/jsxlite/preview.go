package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/recera/jsxlite/cmd/jsxlite/internal/ui"
	"github.com/recera/jsxlite/cmd/jsxlite/internal/watch"
	"github.com/recera/jsxlite/pkg/compiler"
)

func newPreviewCommand() *cobra.Command {
	var targets []string

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show a component's output for every target, live",
		Long: `Opens a terminal view with one tab per target. The file is recompiled
whenever it is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(false)
			if err != nil {
				return err
			}
			b, err := p.builder(targets)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				// Show every target unless told otherwise.
				if b, err = p.builder(b.Compiler().Targets()); err != nil {
					return err
				}
			}
			return runPreview(cmd.Context(), args[0], b.Compiler(), b.Targets())
		},
	}

	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "Targets to show (default all)")
	return cmd
}

func runPreview(ctx context.Context, file string, c *compiler.Compiler, targets []string) error {
	file, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	if _, err := os.Stat(file); err != nil {
		return err
	}

	model := ui.NewModel(filepath.Base(file), targets, func(ctx context.Context, src []byte) (*compiler.Result, error) {
		return c.Compile(ctx, file, src, targets...)
	})
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	w, err := watch.New(filepath.Dir(file), func(path string) bool { return path == file })
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", file, err)
	}
	defer w.Close()

	load := func() {
		src, err := os.ReadFile(file)
		prog.Send(ui.SourceMsg{Src: src, Err: err})
	}
	go load()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.Run(watchCtx, func(watch.Batch) { load() })

	_, err = prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
