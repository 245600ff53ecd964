package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the configured projects, their tags and output directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadBaseConfig(cmd)
			if err != nil {
				return err
			}
			for _, name := range cfg.Table.Names() {
				p := cfg.Table[name]
				tags := "(none)"
				if len(p.Tags) > 0 {
					tags = strings.Join(p.Tags, ", ")
				}
				fmt.Fprintf(cfg.stdout, "%s\n  out:  %s\n  tags: %s\n", name, p.Out, tags)
			}
			return nil
		},
	}
}
