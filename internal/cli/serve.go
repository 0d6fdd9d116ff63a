package cli

import (
	"github.com/spf13/cobra"

	"github.com/zhouzirui/persona-chat/internal/handler"
	"github.com/zhouzirui/persona-chat/internal/service/session"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for browser clients",
		Long: `Serve exposes chat sessions over HTTP. Each session is driven with plain
requests and observed through server-sent events or a websocket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.sessionDeps()
			if err != nil {
				return err
			}
			manager := session.NewManager(deps)
			defer manager.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := newHTTPServer(addr, handler.NewRouter(deps.Registry, manager, a.logger))
			return listenAndRun(cmd.Context(), srv, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PORT)")
	return cmd
}
