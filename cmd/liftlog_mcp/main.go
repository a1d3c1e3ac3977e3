// Package main runs the liftlog analytics MCP server over stdio (for local assistant use).
// The same tools are also mounted on the main backend at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal"
	"github.com/2beens/liftlog/internal/config"
	liftlogmcp "github.com/2beens/liftlog/internal/mcp"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	analyticsService, closeStorage, err := internal.NewStandaloneAnalytics(ctx, cfg, os.Getenv("LIFTLOG_POSTGRES_PASS"))
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer closeStorage()

	server := liftlogmcp.NewServer(analyticsService, "1.0.0")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Error(err)
	}
}
