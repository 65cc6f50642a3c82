package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal"
	"github.com/2beens/gymflow/internal/config"
	"github.com/2beens/gymflow/internal/logging"
	"github.com/2beens/gymflow/pkg"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "gymflow-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	versionInfo := versionInfo()
	log.Tracef("running version: %s", versionInfo)

	adminUsername := os.Getenv("GYMFLOW_ADMIN_USERNAME")
	adminPasswordHash := os.Getenv("GYMFLOW_ADMIN_PASSWORD_HASH")
	if adminUsername == "" || adminPasswordHash == "" {
		log.Errorf("admin username and password not set. use GYMFLOW_ADMIN_USERNAME and GYMFLOW_ADMIN_PASSWORD_HASH, login is disabled")
	}

	redisPassword := os.Getenv("GYMFLOW_REDIS_PASS")
	if redisPassword == "" {
		log.Warnln("redis password not set. use GYMFLOW_REDIS_PASS")
	}

	mcpSecret := os.Getenv("GYMFLOW_MCP_SECRET")
	if mcpSecret == "" {
		log.Warnln("mcp secret not set, /mcp is closed. use GYMFLOW_MCP_SECRET")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             versionInfo,
			AdminUsername:           adminUsername,
			AdminPasswordHash:       adminPasswordHash,
			RedisPassword:           redisPassword,
			MCPSecret:               mcpSecret,
			STTAPIKey:               os.Getenv("GYMFLOW_STT_API_KEY"),
			LLMAPIKey:               os.Getenv("GYMFLOW_LLM_API_KEY"),
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// versionInfo is the vcs revision stamped into the binary, else the last
// commit hash of the working directory.
func versionInfo() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	stdout, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
		return "unknown"
	}
	return strings.TrimSpace(pkg.BytesToString(stdout))
}
