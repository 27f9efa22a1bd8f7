package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCorpusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "corpus",
		Short: "List the loaded policy documents and their sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			c, _, err := loadCorpus(cfg, cliLogger(cfg, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, doc := range c.All() {
				fmt.Fprintf(out, "%s  %s\n", markerColor.Sprint(doc.ID), doc.Title)
				for _, s := range doc.Sections {
					heading := s.Heading
					if heading == "" {
						heading = "(untitled)"
					}
					fmt.Fprintf(out, "    - %s\n", heading)
				}
			}
			fmt.Fprintf(out, "\n%d documents, %d sections\n", c.Len(), c.SectionCount())
			return nil
		},
	}
}
