package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ontograph/ontograph/internal/cli/ui"
	"github.com/ontograph/ontograph/internal/config"
	"github.com/ontograph/ontograph/internal/schema"
	"github.com/ontograph/ontograph/internal/session"
	"github.com/ontograph/ontograph/internal/watch"
)

// errInconsistentSchema is returned by check when the hierarchy cannot be used
var errInconsistentSchema = errors.New("schema hierarchy is inconsistent")

func newCheckCommand(opts *globalOptions) *cobra.Command {
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the schema and report on its class hierarchy",
		Long: `Load the schema, validate it structurally and print a report of the
class hierarchy: inheritance order, cycles, dangling parents and leaf types.

Exits with a non-zero status when the hierarchy cannot be linearized.
With --watch the report is printed again every time the schema or XSD
file changes, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireSchema(); err != nil {
				return err
			}
			logger, err := opts.logger(cfg)
			if err != nil {
				return err
			}

			if !watchMode {
				return runCheck(cmd, cfg, logger)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchCheck(ctx, cmd, cfg, logger)
		},
	}

	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-run the check whenever the schema file changes")
	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) error {
	src, err := session.SourceFor(cfg.Schema)
	if err != nil {
		return err
	}
	cache, err := schema.Load(src,
		schema.WithLogger(logger.Named("schema")),
		schema.WithMaxPasses(cfg.Schema.MaxPasses))
	if err != nil {
		return reportSchemaError(cmd, err)
	}

	report := cache.Analyze()
	fmt.Fprint(cmd.OutOrStdout(), report.String())

	if report.HasCycles || len(report.Broken) > 0 || report.OrderErr != nil {
		msg := ui.SchemaProblem(errInconsistentSchema, noColor(cmd))
		if report.OrderErr != nil {
			msg = ui.SchemaProblem(report.OrderErr, noColor(cmd))
		}
		msg.Write(cmd.ErrOrStderr())
		return reportedError{err: errInconsistentSchema}
	}

	ui.Success(cmd.OutOrStdout(), fmt.Sprintf("%d classes, hierarchy is consistent", report.TotalClasses), noColor(cmd))
	return nil
}

// watchCheck runs the check once, then again after each change, until ctx is done.
// Check failures are printed but do not stop the loop.
func watchCheck(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) error {
	var mu sync.Mutex
	recheck := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := runCheck(cmd, cfg, logger); err != nil {
			var reported reportedError
			if !errors.As(err, &reported) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
		}
	}

	recheck()

	fw, err := watch.NewFileWatcher([]string{cfg.Schema.Path, cfg.Schema.XSD}, 0, logger.Named("watch"),
		func(changed []string) {
			logger.Info("schema changed", zap.Strings("files", changed))
			fmt.Fprintln(cmd.OutOrStdout())
			ui.Header(cmd.OutOrStdout(), "Schema changed, re-checking", noColor(cmd))
			recheck()
		})
	if err != nil {
		return err
	}
	return fw.Run(ctx)
}

// reportSchemaError prints load and hierarchy failures as a structured message
func reportSchemaError(cmd *cobra.Command, err error) error {
	if !schema.IsSchemaLoad(err) && !schema.IsSchemaCycle(err) && !errors.Is(err, schema.ErrUnknownParent) {
		return err
	}
	ui.SchemaProblem(err, noColor(cmd)).Write(cmd.ErrOrStderr())
	return reportedError{err: err}
}
