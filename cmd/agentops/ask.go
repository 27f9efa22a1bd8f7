package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nainya/agentops/pkg/agentops"
	"github.com/nainya/agentops/pkg/compose"
)

var (
	markerColor  = color.New(color.FgCyan, color.Bold)
	headingColor = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

func newAskCmd(opts *rootOptions, mode agentops.Mode) *cobra.Command {
	var (
		asJSON       bool
		showPassages bool
	)

	use, short := "ask <question>", "Answer a policy question"
	if mode == agentops.ModeDraft {
		use, short = "draft <ticket text>", "Draft a reply to a guest ticket"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := cliLogger(cfg, cmd.ErrOrStderr())

			c, _, err := loadCorpus(cfg, log)
			if err != nil {
				return err
			}

			result, err := newEngine(c, cfg).Ask(mode, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeResultJSON(out, mode, result)
			}
			writeResult(out, result, showPassages)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the HTTP response body instead of text")
	cmd.Flags().BoolVar(&showPassages, "passages", false, "list the ranked passages")
	return cmd
}

// highlight colours the citation markers in text
func highlight(text string, citations []string) string {
	for _, id := range citations {
		m := compose.Marker(id)
		text = strings.ReplaceAll(text, m, markerColor.Sprint(m))
	}
	return text
}

func writeResult(w io.Writer, r agentops.Result, showPassages bool) {
	fmt.Fprintln(w, highlight(r.Text, r.Citations))
	if len(r.Citations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", headingColor.Sprint("Citations:"), strings.Join(r.Citations, ", "))
	}
	if showPassages {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingColor.Sprint("Passages:"))
		for i, p := range r.Passages {
			fmt.Fprintf(w, "  %d. %s / %s %s\n", i+1, p.DocumentID, p.SectionHeading, dimColor.Sprintf("(score %.0f)", p.Score))
		}
	}
}

func writeResultJSON(w io.Writer, mode agentops.Mode, r agentops.Result) error {
	field := "answer"
	if mode == agentops.ModeDraft {
		field = "draft"
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		field:       r.Text,
		"citations": r.Citations,
	})
}
