package cmd

import (
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cyberquest/internal/app"
	"cyberquest/internal/backend"
	"cyberquest/internal/backendstub"
	"cyberquest/internal/identity"
	"cyberquest/internal/quest"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Play against a built-in offline backend",
	Long:  "Runs the full client against an in-process stub backend. No server, no Docker, no network. Labs are simulated and flags are the stub's own.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}

		srv := &http.Server{Handler: backendstub.New().Handler()}
		go func() { _ = srv.Serve(ln) }()
		defer srv.Close()

		sessionID := identity.NewSessionID()

		clientCfg := backend.DefaultConfig()
		clientCfg.BaseURL = fmt.Sprintf("http://%s/api", ln.Addr().String())
		client := backend.New(clientCfg, sessionID)

		session, err := quest.NewSession(sessionID, client, quest.Options{
			Logger: zap.NewNop(),
		})
		if err != nil {
			return err
		}
		defer session.Discard()

		return app.Run(session)
	},
}
