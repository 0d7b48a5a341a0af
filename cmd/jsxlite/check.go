package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	var targets []string

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Parse components and report unsupported constructs",
		Long: `Parses the given component files, or every component below srcDir, for
the chosen targets without writing anything. Logic-less targets such as
liquid make pass-through statements an error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(false)
			if err != nil {
				return err
			}
			b, err := p.builder(targets)
			if err != nil {
				return err
			}
			files, err := p.sources(args)
			if err != nil {
				return err
			}

			failed := 0
			for _, file := range files {
				src, err := os.ReadFile(file)
				if err == nil {
					err = b.Check(cmd.Context(), file, src)
				}
				if err != nil {
					log.Printf("❌ %v", err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d component(s) failed", failed, len(files))
			}
			log.Printf("✅ %d component(s) OK for %v", len(files), b.Targets())
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&targets, "target", "t", nil, "Targets to check against")
	return cmd
}
