package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"thebanscraper/pkg/texts"
	"thebanscraper/pkg/ui"
)

var textsCmd = &cobra.Command{
	Use:   "texts",
	Short: "List supported text types and their sections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, key := range texts.Keys() {
			t, err := texts.Lookup(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  %s\n", ui.Cyan(t.Key), t.Name)
			fmt.Fprintf(out, "  markers:  %s\n", strings.Join(t.Markers, ", "))
			labels := t.Labels()
			fmt.Fprintf(out, "  sections: %s .. %s (%d)\n", labels[0], labels[len(labels)-1], len(labels))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(textsCmd)
}
