// Package main runs the gymflow MCP server over stdio, for local MCP clients.
// The same server is mounted on the backend at /mcp.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal/config"
	"github.com/2beens/gymflow/internal/db"
	gymflowmcp "github.com/2beens/gymflow/internal/gymflow/mcp"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/logging"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// stdout carries the protocol
	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    cfg.LogLevel,
		Environment: cfg.Environment,
		Output:      os.Stderr,
	})

	ctx := context.Background()
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		TracingEnabled: false,
	})
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer dbPool.Close()

	server := gymflowmcp.NewServer(gymflowmcp.NewPoolSchemaRepo(dbPool), storage.NewPGStore(dbPool))
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Errorf("mcp server: %s", err)
	}
}
