// Package cli is the studymate terminal client. It talks to Ollama directly
// and shares the model settings file with the server.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studymate-backend/internal/config"
	"studymate-backend/internal/logger"
	"studymate-backend/internal/modelconfig"
	"studymate-backend/internal/ollama"
)

type options struct {
	ollamaURL  string
	configPath string
	logLevel   string
}

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfg      *config.Config
	settings *modelconfig.Store
	client   *ollama.Client
	log      *zap.Logger
}

// NewRootCmd builds the studymate command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	a := &app{}

	root := &cobra.Command{
		Use:           "studymate",
		Short:         "studymate talks to a local Ollama server to help you study",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(opts)
		},
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print usage.
			fmt.Fprintln(cmd.OutOrStdout(), cmd.UsageString())
		},
	}

	root.PersistentFlags().StringVar(&opts.ollamaURL, "ollama-url", "", "Ollama base URL (default from OLLAMA_BASE_URL)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "model settings file (default from MODEL_CONFIG_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newModelsCmd(a))
	root.AddCommand(newAskCmd(a))
	return root
}

func (a *app) init(opts *options) error {
	a.cfg = config.Load()
	if opts.ollamaURL != "" {
		a.cfg.OllamaBaseURL = opts.ollamaURL
	}
	if opts.configPath != "" {
		a.cfg.ModelConfigPath = opts.configPath
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = opts.logLevel
	log, err := logger.New(logCfg)
	if err != nil {
		return err
	}
	a.log = log

	a.settings = modelconfig.Load(a.cfg.ModelConfigPath, a.cfg.DefaultModel)
	a.client, err = ollama.New(a.cfg.OllamaBaseURL, a.settings,
		ollama.WithProbeTimeout(a.cfg.ProbeTimeout),
		ollama.WithGenerateTimeout(a.cfg.GenerateTimeout),
		ollama.WithLogger(log.Named("ollama")),
	)
	return err
}
