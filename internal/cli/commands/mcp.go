package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/cardboard/internal/api"
	"github.com/kutbudev/cardboard/internal/config"
	"github.com/kutbudev/cardboard/internal/mcp"
)

// NewMcpCommand exposes the card tools to MCP clients.
func NewMcpCommand(version string) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "MCP (Model Context Protocol) server management",
		Subcommands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start MCP server (stdio)",
				Action: func(c *cli.Context) error {
					client, err := newClient()
					if err != nil {
						return err
					}
					return mcp.ServeStdio(c.Context, client, version)
				},
			},
			{
				Name:  "config",
				Usage: "Print MCP config examples for clients",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "client",
						Aliases: []string{"c"},
						Usage:   "target client (generic|codex)",
						Value:   "generic",
					},
				},
				Action: func(c *cli.Context) error {
					switch strings.ToLower(c.String("client")) {
					case "codex":
						printCodexConfig()
					default:
						printGenericConfig()
					}
					return nil
				},
			},
			{
				Name:  "tools",
				Usage: "List available MCP tools",
				Action: func(c *cli.Context) error {
					// Listing tools never calls the API, so no login is needed.
					tools, err := mcp.Tools(c.Context, api.New(config.DefaultBaseURL, config.Credentials{}), version)
					if err != nil {
						return err
					}
					b, err := json.MarshalIndent(tools, "", "  ")
					if err != nil {
						return err
					}
					os.Stdout.Write(b)
					os.Stdout.Write([]byte("\n"))
					return nil
				},
			},
		},
	}
}

func printGenericConfig() {
	cfg := map[string]interface{}{
		"mcpServers": map[string]interface{}{
			"cardboard": map[string]interface{}{
				"command": "cardboard",
				"args":    []string{"mcp", "serve"},
			},
		},
	}
	b, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Println(string(b))
}

func printCodexConfig() {
	fmt.Println("# Add the following to ~/.codex/config.toml (merge with existing settings)")
	fmt.Println("[mcp_servers.cardboard]")
	fmt.Println("command = \"cardboard\"")
	fmt.Println("args = [\"mcp\", \"serve\"]")
	fmt.Println("enabled = true")
}
