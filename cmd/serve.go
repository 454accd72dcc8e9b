package cmd

import (
	"fmt"
	"os"

	"github.com/evalstate/hf-mcp-server-sub001/internal/app"
	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	serveTransport string
	serveHost      string
	servePort      int
	serveBouquet   string
	serveStrict    bool
	serveSettings  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP gateway",
	Long: `Starts the gateway on the configured transport.

Transports:
  stdio            one implicit session over stdin/stdout
  sse              legacy two-channel streaming (GET /sse + POST /message)
  streamable-http  stateful streaming HTTP (POST/GET/DELETE /mcp)
  stateless-http   a fresh server instance per POST /mcp

Flags override the config file; HF_MCP_* environment variables override
both.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveTransport, "transport", "t", "", "Transport kind (stdio, sse, streamable-http, stateless-http)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind HTTP transports to")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port for HTTP transports")
	serveCmd.Flags().StringVar(&serveBouquet, "bouquet", "", "Server-side default bouquet applied when a caller names none")
	serveCmd.Flags().BoolVar(&serveStrict, "strict", false, "Strict MCP compliance on the stateless transport (no info page)")
	serveCmd.Flags().StringVar(&serveSettings, "settings-file", "", "Serve tool settings from a local YAML file instead of the Hub API")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	initLogging()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyServeFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(&cfg)
	if err != nil {
		return fmt.Errorf("failed to bootstrap gateway: %w", err)
	}
	return a.Run(cmd.Context())
}

// applyServeFlags layers explicit flags over the loaded configuration.
func applyServeFlags(cfg *config.Config) {
	if serveTransport != "" {
		cfg.Server.Transport = config.Transport(serveTransport)
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveBouquet != "" {
		cfg.Policy.DefaultBouquet = serveBouquet
	}
	if serveStrict {
		cfg.Server.StrictCompliance = true
	}
	if serveSettings != "" {
		cfg.Settings.FilePath = serveSettings
	}
}

func initLogging() {
	level := logging.LevelInfo
	if debug {
		level = logging.LevelDebug
	}
	// Stdout carries the protocol on the stdio transport; logs go to
	// stderr unconditionally.
	logging.InitForCLI(level, os.Stderr)
}
