package main

import (
	"context"
	"errors"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/recera/jsxlite/cmd/jsxlite/internal/build"
	"github.com/recera/jsxlite/cmd/jsxlite/internal/watch"
)

func newWatchCommand() *cobra.Command {
	var targets []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile components as they change",
		Long: `Compiles every component below srcDir, then watches the directory and
recompiles changed files. Outputs of deleted components are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(true)
			if err != nil {
				return err
			}
			defer p.close()

			b, err := p.builder(targets)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), p, b)
		},
	}

	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "Targets to compile to")
	return cmd
}

func runWatch(ctx context.Context, p *project, b *build.Builder) error {
	files, err := p.sources(nil)
	if err != nil {
		return err
	}
	if err := runCompile(ctx, b, files, false, nil); err != nil {
		log.Printf("⚠️  %v", err)
	}

	w, err := watch.New(p.cfg.SrcDir, p.cfg.IsSource)
	if err != nil {
		return err
	}
	defer w.Close()

	log.Printf("👀 Watching %s for changes...", p.cfg.SrcDir)
	err = w.Run(ctx, func(batch watch.Batch) {
		rebuild(ctx, b, batch)
	})
	if errors.Is(err, context.Canceled) {
		log.Println("🛑 Stopped watching")
		return nil
	}
	return err
}

// rebuild applies one batch of file changes.
func rebuild(ctx context.Context, b *build.Builder, batch watch.Batch) {
	for _, path := range batch.Removed {
		n, err := b.Remove(path)
		if err != nil {
			log.Printf("⚠️  Failed to remove outputs of %s: %v", filepath.Base(path), err)
		}
		log.Printf("🗑️  Removed %s (%d cached output(s) invalidated)", filepath.Base(path), n)
	}
	if len(batch.Changed) == 0 {
		return
	}
	results, err := b.Build(ctx, batch.Changed)
	if err != nil {
		log.Printf("⚠️  Rebuild failed: %v", err)
		return
	}
	for _, r := range results {
		if !r.Failed() {
			log.Printf("✅ Compiled %s", filepath.Base(r.Source))
		}
	}
	report(results)
}
