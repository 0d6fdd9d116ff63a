package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCharactersCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "characters",
		Short: "List the selectable characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			items := registry.List()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			for _, c := range items {
				fmt.Fprintf(out, "%-16s  %-18s  %s\n", c.ID, c.Name, c.Subtitle)
			}
			fmt.Fprintf(out, "\n%d characters\n", len(items))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the registry as JSON")
	return cmd
}
