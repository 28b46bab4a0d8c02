package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/bootstrap"
	"github.com/GoCodeAlone/bootstrap/logging"
)

// OsExit is replaced in tests.
var OsExit = os.Exit

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion returns the version line.
func PrintVersion() string {
	return fmt.Sprintf("bootstrap v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

type rootOptions struct {
	configFile string
	envPrefix  string
	logLevel   string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:     "bootstrap",
		Short:   "Bootstrap the service container and logging pipeline",
		Version: PrintVersion(),
		Long: `bootstrap loads configuration, builds the service container and
assembles the logging pipeline described by it.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", os.Getenv("BOOTSTRAP_CONFIG"), "config file (yaml, toml, json or .env)")
	flags.StringVar(&opts.envPrefix, "env-prefix", "BOOTSTRAP_", "prefix of environment overrides, e.g. BOOTSTRAP_DEBUG__CLI")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "level of bootstrap diagnostics written to stderr")

	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func (o *rootOptions) build(stderr io.Writer) (*bootstrap.App, error) {
	diag := bootstrap.NewConsoleLogger(stderr, o.logLevel)
	opts := []bootstrap.Option{
		bootstrap.WithLogger(diag),
		bootstrap.WithEnv(o.envPrefix, nil),
	}
	if o.configFile != "" {
		opts = append(opts, bootstrap.WithConfigFile(o.configFile))
	}
	app, err := bootstrap.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}
	return app, nil
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Assemble the pipeline, print its handlers and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.build(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Shutdown(context.Background()) //nolint:errcheck

			out := cmd.OutOrStdout()
			logger := app.Logger()
			fmt.Fprintf(out, "channel: %s\n", logger.Name())
			for i, h := range logger.Handlers() {
				fmt.Fprintf(out, "handler %d: %s\n", i, describeHandler(h))
			}
			fmt.Fprintf(out, "services: %s\n", strings.Join(app.Container().Keys(), ", "))
			return nil
		},
	}
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Bootstrap and keep running until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.build(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.ErrorHandler().Recover()
			app.Logger().Notice("Bootstrap complete for channel {channel}", "channel", app.Logger().Name())
			return app.Run(cmd.Context())
		},
	}
}

func describeHandler(h logging.Handler) string {
	switch v := h.(type) {
	case *logging.StreamHandler:
		dest := v.Path()
		if dest == "" {
			dest = "writer"
		}
		return fmt.Sprintf("console stream=%s level=%s", dest, v.Level())
	case *logging.SyslogHandler:
		return fmt.Sprintf("syslog ident=%s level=%s", v.Ident(), v.Level())
	case *logging.BufferHandler:
		return "buffered " + describeHandler(v.Inner())
	case *logging.RotatingFileHandler:
		return fmt.Sprintf("rotating-file path=%s level=%s max_files=%d", v.Filename(), v.Level(), v.Config().MaxFiles)
	default:
		return fmt.Sprintf("%T", h)
	}
}
