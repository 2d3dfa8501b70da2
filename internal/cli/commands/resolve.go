package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ontograph/ontograph/internal/cli/ui"
	"github.com/ontograph/ontograph/internal/namespace"
	"github.com/ontograph/ontograph/internal/session"
)

// errCacheDisabled is returned when a cache operation is requested without a namespace cache
var errCacheDisabled = errors.New("namespace cache is disabled (set namespace.cache.enabled)")

func newResolveCommand(opts *globalOptions) *cobra.Command {
	var (
		refresh    bool
		clearCache bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <namespace>...",
		Short: "Resolve public schema identifiers to schema locations",
		Long: `Resolve public schema identifiers through the configured registry.

Identifiers that cannot be resolved are printed unchanged. With --refresh
the cached locations of the given identifiers are dropped before resolving;
--clear-cache empties the namespace cache.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if clearCache {
				return cobra.ArbitraryArgs(cmd, args)
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := opts.logger(cfg)
			if err != nil {
				return err
			}

			resolver, closer, err := session.NewResolver(cmd.Context(), cfg.Namespace, logger.Named("namespace"))
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}

			cached, isCached := resolver.(*namespace.Cached)
			if clearCache {
				if !isCached {
					return errCacheDisabled
				}
				if err := cached.Flush(cmd.Context()); err != nil {
					return err
				}
				ui.Success(cmd.OutOrStdout(), "Namespace cache cleared", noColor(cmd))
				if len(args) == 0 {
					return nil
				}
			}
			if refresh && isCached {
				if err := cached.Forget(cmd.Context(), args...); err != nil {
					return err
				}
			}

			if len(args) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), resolver.Resolve(cmd.Context(), args[0]))
				return nil
			}

			kv := newKeyValue(cmd)
			for _, id := range args {
				kv.AddRow(id, resolver.Resolve(cmd.Context(), id))
			}
			kv.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop cached locations of the given identifiers before resolving")
	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "empty the namespace cache")
	return cmd
}
