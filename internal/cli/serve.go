package cli

import (
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	cfg := opts.cfg

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions over HTTP, WebSocket and gRPC health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.openApp()
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	f.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "gRPC health port")
	f.StringVar(&cfg.AdminTokenHash, "admin-token-hash", cfg.AdminTokenHash, "bcrypt hash of the admin bearer token")
	f.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", cfg.AllowedOrigins, "origins allowed on /ws/predict")
	f.IntVar(&cfg.PredictRateLimit, "rate-limit", cfg.PredictRateLimit, "predict requests per client per minute")
	return cmd
}
