// Package cli implements the mailsweep command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mailsweep/mailsweep/internal/config"
	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/logging"
)

// RootOptions holds the persistent flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	BaseURL    string
	UserID     string
	Token      string
	LogLevel   string
	Output     string
}

// CLIContext carries the resolved configuration and logger into subcommands.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
}

// NewRootCommand builds the mailsweep root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	cliCtx := &CLIContext{}

	root := &cobra.Command{
		Use:           "mailsweep",
		Short:         "Bulk mailbox cleanup against the remote mail API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupContext(opts, cliCtx)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "path to config file (optional)")
	flags.StringVar(&opts.BaseURL, "base-url", "", "mail API base URL")
	flags.StringVar(&opts.UserID, "user", "", "mailbox user id")
	flags.StringVar(&opts.Token, "token", "", "bearer token for the mail API")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVarP(&opts.Output, "output", "o", "table", "output format: table or json")

	root.AddCommand(
		newDeleteCommand(opts, cliCtx),
		newModifyCommand(opts, cliCtx),
	)
	return root
}

// setupContext resolves config (file or environment), applies flag overrides,
// and builds the logger.
func setupContext(opts *RootOptions, cliCtx *CLIContext) error {
	applyFlagEnv(opts)

	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	// CLI output is for humans; keep logs readable.
	if cfg.Log.Format == "json" {
		cfg.Log.Format = "console"
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	cliCtx.Config = cfg
	cliCtx.Logger = logger
	return nil
}

// applyFlagEnv pushes flag values into the environment before the config
// loader runs, so flags win over both file and ambient environment.
func applyFlagEnv(opts *RootOptions) {
	if opts.BaseURL != "" {
		os.Setenv("MAILSWEEP_MAIL_API_BASE_URL", opts.BaseURL)
	}
	if opts.UserID != "" {
		os.Setenv("MAILSWEEP_MAIL_API_USER_ID", opts.UserID)
	}
	if opts.Token != "" {
		os.Setenv("MAILSWEEP_MAIL_API_TOKEN", opts.Token)
	}
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
