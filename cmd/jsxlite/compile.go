package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/recera/jsxlite/cmd/jsxlite/internal/build"
)

func newCompileCommand() *cobra.Command {
	var (
		targets []string
		outDir  string
		stdout  bool
		noCache bool
		jobs    int
	)

	cmd := &cobra.Command{
		Use:   "compile [files...]",
		Short: "Compile components to the configured targets",
		Long: `Compiles the given component files, or every component below srcDir,
and writes one output file per target under outDir/<target>/.

Pass "-" to read a single component from stdin and print the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(!noCache)
			if err != nil {
				return err
			}
			defer p.close()

			if outDir != "" {
				p.cfg.OutDir = outDir
			}
			if jobs > 0 {
				p.cfg.Jobs = jobs
			}
			b, err := p.builder(targets)
			if err != nil {
				return err
			}

			if len(args) == 1 && args[0] == "-" {
				return compileStdin(cmd.Context(), b, cmd.OutOrStdout())
			}
			files, err := p.sources(args)
			if err != nil {
				return err
			}
			return runCompile(cmd.Context(), b, files, stdout, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "Targets to compile to (react, vue, liquid, json)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (overrides outDir)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print outputs instead of writing files")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore the build cache")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Files compiled in parallel (default from jsxlite.yaml)")

	return cmd
}

func runCompile(ctx context.Context, b *build.Builder, files []string, stdout bool, w io.Writer) error {
	if len(files) == 0 {
		log.Println("⚠️  No components found")
		return nil
	}
	start := time.Now()
	log.Printf("🔨 Compiling %d component(s) to %v...", len(files), b.Targets())

	var results []*build.FileResult
	if stdout {
		for _, file := range files {
			src, err := os.ReadFile(file)
			if err != nil {
				results = append(results, &build.FileResult{Source: file, Err: err})
				continue
			}
			res := b.Compile(ctx, file, src)
			printOutputs(w, res, len(files) > 1 || len(b.Targets()) > 1)
			results = append(results, res)
		}
	} else {
		var err error
		results, err = b.Build(ctx, files)
		if err != nil {
			return err
		}
	}

	failed, cached := report(results)
	if failed > 0 {
		return fmt.Errorf("%d of %d component(s) failed", failed, len(files))
	}
	log.Printf("✅ Compiled %d component(s) in %v (%d output(s) from cache)", len(files), time.Since(start).Round(time.Millisecond), cached)
	return nil
}

func compileStdin(ctx context.Context, b *build.Builder, w io.Writer) error {
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	res := b.Compile(ctx, "<stdin>", src)
	printOutputs(w, res, len(b.Targets()) > 1)
	if failed, _ := report([]*build.FileResult{res}); failed > 0 {
		return fmt.Errorf("compile failed")
	}
	return nil
}

// report logs every failure and counts failed files and cached outputs.
func report(results []*build.FileResult) (failed, cached int) {
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Err != nil {
			log.Printf("❌ %v", r.Err)
		}
		for _, out := range r.Outputs {
			switch {
			case out.Err != nil:
				log.Printf("❌ %s [%s]: %v", r.Source, out.Target, out.Err)
			case out.Cached:
				cached++
			}
		}
		if r.Failed() {
			failed++
		}
	}
	return failed, cached
}

func printOutputs(w io.Writer, res *build.FileResult, headers bool) {
	for _, out := range res.Outputs {
		if out.Err != nil {
			continue
		}
		if headers {
			fmt.Fprintf(w, "// ==> %s [%s]\n", res.Source, out.Target)
		}
		fmt.Fprint(w, out.Text)
		if headers {
			fmt.Fprintln(w)
		}
	}
}
