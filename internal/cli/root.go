// Package cli implements the roster command line tool: local scoring of
// roster tables and uploads to a running service.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/rebound/internal/app"
	"github.com/okian/rebound/pkg/logger"
)

// cliMaxUploadBytes lifts the service upload cap for local files.
const cliMaxUploadBytes = 64 << 20

// NewRootCmd builds the roster command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "roster",
		Short:         "Score student rosters for dropout risk",
		Long:          "roster scores classroom tables for dropout risk, prints skill-rebuilder plans and uploads tables to a running rebound service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			if err := logger.InitWith(cmd.ErrOrStderr(), format); err != nil {
				return err
			}
			return logger.SetLevelString(level)
		},
	}
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", logger.FormatText, "Log format (text or json)")

	root.AddCommand(
		newSampleCmd(),
		newScoreCmd(),
		newPredictCmd(),
		newPlanCmd(),
		newPushCmd(),
	)
	return root
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// newLocalService returns a service for one-shot local commands.
func newLocalService(opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithLogger(logger.Named("roster")),
		service.WithMaxUploadBytes(cliMaxUploadBytes),
	}, opts...)
	return service.New(opts...)
}

// openInput opens path, or stdin for "" and "-".
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// openOutput creates path, or returns stdout for "" and "-".
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
