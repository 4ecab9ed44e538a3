package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/pagegrid/internal/app"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

type options struct {
	outW io.Writer
	logW io.Writer

	logLevel  string
	logFormat string
}

// Execute runs the pagegrid command line. Command output goes to outW and
// logs to logW.
func Execute(ctx context.Context, outW, logW io.Writer, args []string) error {
	root := NewRootCommand(outW, logW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// NewRootCommand builds the `pagegrid` command tree.
func NewRootCommand(outW, logW io.Writer) *cobra.Command {
	opts := &options{outW: outW, logW: logW}

	root := &cobra.Command{
		Use:   "pagegrid",
		Short: "Organism registry and page builder backend for restaurant themes",
		Long: `pagegrid discovers self-describing page building blocks ("organisms"),
validates their configuration schemas and serves the page builder API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(logW)

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'. (env PAGEGRID_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'. (env PAGEGRID_LOG_FORMAT)")

	root.AddCommand(
		newCheckCommand(opts),
		newListCommand(opts),
		newRenderCommand(opts),
		newServeCommand(opts),
		newFollowCommand(opts),
	)
	return root
}

// config merges the environment with the flags that were set on cmd.
func (o *options) config(cmd *cobra.Command, override func(*app.Config)) (*app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if override != nil {
		override(&cfg)
	}
	valid, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return valid, nil
}

// newApp builds the application and turns discovery problems into a
// readable report with exit code 1.
func (o *options) newApp(cfg *app.Config) (*app.App, error) {
	a, err := app.NewApp(o.logW, cfg)
	if err == nil {
		return a, nil
	}
	var derr *registry.DiscoveryError
	if errors.As(err, &derr) {
		msg := fmt.Sprintf("organism discovery failed with %d problem(s):", len(derr.Errors))
		for _, e := range derr.Errors {
			msg += "\n  - " + e.Error()
		}
		return nil, &ExitError{Code: ExitFailure, Message: msg}
	}
	return nil, &ExitError{Code: ExitFailure, Message: err.Error()}
}
