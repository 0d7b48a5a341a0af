package main

import (
	"fmt"
	"log"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/recera/jsxlite/internal/cache"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the build cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cached outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, p, err := openProjectCache()
			if err != nil {
				return err
			}
			defer p.close()

			entries := c.Entries()
			var size int64
			counts := make(map[string]int)
			for _, e := range entries {
				size += e.Size
				counts[e.Target]++
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "directory\t%s\n", p.cfg.Cache.Dir)
			fmt.Fprintf(w, "entries\t%d\n", len(entries))
			fmt.Fprintf(w, "size\t%d bytes (limit %d)\n", size, p.cfg.Cache.MaxSize)
			fmt.Fprintf(w, "max age\t%v\n", p.cfg.Cache.MaxAge)
			fmt.Fprintf(w, "strategy\t%s\n", p.cfg.Cache.Strategy)
			for _, target := range []string{"react", "vue", "liquid", "json"} {
				if counts[target] > 0 {
					fmt.Fprintf(w, "  %s\t%d\n", target, counts[target])
				}
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove expired outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, p, err := openProjectCache()
			if err != nil {
				return err
			}
			defer p.close()
			log.Printf("🗑️  Pruned %d expired output(s)", c.Prune())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached output",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, p, err := openProjectCache()
			if err != nil {
				return err
			}
			defer p.close()
			if err := c.Clear(); err != nil {
				return err
			}
			log.Println("✅ Build cache cleared")
			return nil
		},
	})

	return cmd
}

func openProjectCache() (*cache.Cache, *project, error) {
	p, err := loadProject(true)
	if err != nil {
		return nil, nil, err
	}
	if p.cache == nil {
		return nil, nil, fmt.Errorf("build cache is disabled or unavailable")
	}
	return p.cache, p, nil
}
