package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// configPath points at an optional YAML config file shared by all
// subcommands. Environment overrides still apply on top.
var configPath string

// debug enables verbose logging across the gateway.
var debug bool

// rootCmd is the entry point when the binary is called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "hf-mcp-server",
	Short: "MCP gateway for Hugging Face Hub tools and Gradio spaces",
	Long: `hf-mcp-server exposes Hugging Face Hub capabilities and remote Gradio
spaces as MCP tools over stdio, SSE, streamable HTTP, or stateless HTTP.

Which tools a client sees is decided per request from the caller's
settings, bouquet/mix presets, and connected Gradio endpoints.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// SetVersion injects the build version from the main package.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "hf-mcp-server version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
