// Package cli is the gymflow command line: a single-user front end over a
// local SQLite database, with the same planner, capture flow and insights as
// the HTTP service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2beens/gymflow/internal/gymflow/capture"
	"github.com/2beens/gymflow/internal/gymflow/exercises"
	"github.com/2beens/gymflow/internal/gymflow/insights"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/gymflow/stt"
	"github.com/2beens/gymflow/internal/logging"
	"github.com/2beens/gymflow/pkg"
)

const envPrefix = "GYMFLOW"

// app carries the state shared by all commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// store is opened lazily from the db setting unless already set
	store storage.Store
	// speech and provider are built from config unless already set
	speech   capture.SpeechCapture
	provider insights.Provider
	now      func() time.Time
}

// Execute runs the root command against the process stdio.
func Execute() error {
	return NewRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute()
}

func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCmd(&app{
		v:      viper.New(),
		in:     in,
		out:    out,
		errOut: errOut,
		now:    time.Now,
	})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gymflow",
		Short: "Gymflow - plan workouts and log sets by voice",
		Long: `Gymflow plans workout sessions for members and records the sets done,
spoken ("8 reps at 135 pounds") or typed in when speech is not available.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (GYMFLOW_*, e.g. GYMFLOW_STT_API_KEY)
  3. Config file (~/.gymflow/config.yaml)
  4. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			logging.Setup(logging.LoggerSetupParams{
				LogLevel: a.v.GetString("log_level"),
				Output:   a.errOut,
			})
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return nil
			}
			return a.store.Close()
		},
	}
	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.gymflow/config.yaml)")
	flags.String("db", "", "sqlite database file (default: $HOME/.gymflow/gymflow.db)")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag("db", flags.Lookup("db"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	a.v.SetDefault("capture_timeout", capture.DefaultListenTimeout)
	a.v.SetDefault("stt.base_url", stt.DefaultBaseURL)
	a.v.SetDefault("stt.model", stt.DefaultModel)
	a.v.SetDefault("stt.timeout", 30*time.Second)
	a.v.SetDefault("llm.provider", insights.ProviderAnthropic)
	a.v.SetDefault("llm.max_tokens", 2048)
	a.v.SetDefault("llm.timeout", 90*time.Second)

	rootCmd.AddCommand(
		newMemberCmd(a),
		newExercisesCmd(a),
		newPlanCmd(a),
		newRecordCmd(a),
		newHistoryCmd(a),
		newInsightsCmd(a),
		newScanCmd(a),
		newHashPasswordCmd(a),
	)
	return rootCmd
}

// initConfig reads the config file and GYMFLOW_* env variables.
func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".gymflow"))
		a.v.SetConfigType("yaml")
		a.v.SetConfigName("config")
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (a *app) dbPath() (string, error) {
	if p := a.v.GetString("db"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".gymflow", "gymflow.db"), nil
}

// openStore opens the SQLite database and makes sure the exercise library
// is in it.
func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	path, err := a.dbPath()
	if err != nil {
		return nil, err
	}
	if err := pkg.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	store, err := storage.OpenSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	log.Debugf("using db %s", path)

	library, err := exercises.Library()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if _, err := exercises.Seed(ctx, store, library); err != nil {
		_ = store.Close()
		return nil, err
	}

	a.store = store
	return store, nil
}

// speechCapture is available only when an STT api key is configured.
func (a *app) speechCapture() capture.SpeechCapture {
	if a.speech != nil {
		return a.speech
	}
	apiKey := a.v.GetString("stt.api_key")
	if apiKey == "" {
		log.Debugln("no stt api key, manual entry only")
		return capture.UnavailableSpeech{}
	}
	client, err := stt.NewClient(stt.ClientParams{
		BaseURL:  a.v.GetString("stt.base_url"),
		APIKey:   apiKey,
		Model:    a.v.GetString("stt.model"),
		Language: a.v.GetString("stt.language"),
		Timeout:  a.v.GetDuration("stt.timeout"),
	})
	if err != nil {
		log.Warnf("stt client: %s, manual entry only", err)
		return capture.UnavailableSpeech{}
	}
	return capture.NewSpeechCapture(client)
}

func (a *app) insightsProvider() (insights.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	apiKey := a.v.GetString("llm.api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set %s_LLM_API_KEY", insights.ErrProviderDisabled, envPrefix)
	}
	return insights.NewProvider(insights.ProviderConfig{
		Provider:  a.v.GetString("llm.provider"),
		Model:     a.v.GetString("llm.model"),
		APIKey:    apiKey,
		BaseURL:   a.v.GetString("llm.base_url"),
		MaxTokens: a.v.GetInt("llm.max_tokens"),
		Timeout:   a.v.GetDuration("llm.timeout"),
	})
}
