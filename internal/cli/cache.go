package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/chartstats/internal/cache"
	"github.com/rohmanhakim/chartstats/internal/pipeline"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the response cache.",
}

var cacheKeyCmd = &cobra.Command{
	Use:   "key <endpoint> [name=value...]",
	Short: "Print the cache key of a request.",
	Long: `Print the cache key of a request. Parameters are used in the order given,
which is also the order the key is built in.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(args[1:])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cache.BuildKey(args[0], params))
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the cached keys and the size of each body.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		recorder, syncLogger, err := newRecorder(cfg)
		if err != nil {
			return err
		}
		defer syncLogger()

		store, closeStore, err := pipeline.OpenCacheStore(cfg, recorder)
		if err != nil {
			return err
		}
		defer closeStore()

		entries := store.Load(cmd.Context())
		for _, key := range slices.Sorted(maps.Keys(entries)) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", key, len(entries[key]))
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheKeyCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}

// parseParams turns name=value arguments into ordered cache params.
func parseParams(args []string) (cache.Params, error) {
	params := cache.Params{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", arg)
		}
		params = params.With(name, value)
	}
	return params, nil
}
