package main

import "github.com/evalstate/hf-mcp-server-sub001/cmd"

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
