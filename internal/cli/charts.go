package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/chartstats/internal/pipeline"
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "List the popular Billboard charts and their --chart-index.",
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

		service := pipeline.NewChartService(cfg, pipeline.NewRetriever(cfg, store, recorder), recorder)
		popular, err := service.PopularCharts(cmd.Context())
		if err != nil {
			return err
		}
		for i, chart := range popular {
			fmt.Fprintln(cmd.OutOrStdout(), chart.Listing(i+1))
		}
		return nil
	},
}
