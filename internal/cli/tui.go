package cli

import (
	"github.com/spf13/cobra"

	"github.com/zhouzirui/persona-chat/internal/service/session"
	"github.com/zhouzirui/persona-chat/internal/ui/tui"
)

func newTUICommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Chat in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.sessionDeps()
			if err != nil {
				return err
			}
			if deps.Player, err = a.localPlayer(); err != nil {
				return err
			}

			s := session.New(deps)
			defer s.Wait()
			return tui.Run(cmd.Context(), s, a.logger)
		},
	}
	// the screen belongs to the UI while it runs
	cmd.Flags().String("log-file", defaultTUILogFile(), "file that receives logs while the UI is open")
	return cmd
}
