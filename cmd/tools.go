package cmd

import (
	"sort"
	"strings"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/hubtools"
	"github.com/evalstate/hf-mcp-server-sub001/internal/policy"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the gateway's local tools and selection presets",
	Long: `Lists every built-in tool id with its description, followed by the
bouquet and mix preset tables the selection policy recognizes. Remote
Gradio tools are not listed here; they are discovered per request.`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	client := hubtools.NewClient("", "")

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Tool", "Description"})
	for _, st := range hubtools.ForIDs(hubtools.AllToolIDs(), client) {
		t.AppendRow(table.Row{st.Tool.Name, st.Tool.Description})
	}
	t.Render()

	bouquets := policy.NewStrategy(config.PolicyConfig{}).Bouquets()
	b := table.NewWriter()
	b.SetOutputMirror(out)
	b.SetStyle(table.StyleLight)
	b.AppendHeader(table.Row{"Bouquet", "Tools"})
	for _, name := range sortedKeys(bouquets) {
		b.AppendRow(table.Row{name, strings.Join(bouquets[name], ", ")})
	}
	b.Render()

	mixes := policy.DefaultMixes()
	m := table.NewWriter()
	m.SetOutputMirror(out)
	m.SetStyle(table.StyleLight)
	m.AppendHeader(table.Row{"Mix", "Tools"})
	for _, name := range sortedKeys(mixes) {
		m.AppendRow(table.Row{name, strings.Join(mixes[name], ", ")})
	}
	m.Render()

	return nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
