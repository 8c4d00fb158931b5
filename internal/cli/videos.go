package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/chartstats/internal/videodb"
)

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "Inspect the stored video statistics.",
}

var videosTermsCmd = &cobra.Command{
	Use:   "terms",
	Short: "List every search term with stored videos, oldest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openVideoStore()
		if err != nil {
			return err
		}
		defer closeStore()

		terms, err := store.Terms(cmd.Context())
		if err != nil {
			return err
		}
		for _, term := range terms {
			fmt.Fprintln(cmd.OutOrStdout(), term)
		}
		return nil
	},
}

var videosShowCmd = &cobra.Command{
	Use:   "show <term>",
	Short: "Print the stored videos of a search term.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openVideoStore()
		if err != nil {
			return err
		}
		defer closeStore()

		videos, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, v := range videos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tviews=%d likes=%d dislikes=%d\n",
				v.VideoID, v.Name, v.Views, v.Likes, v.Dislikes)
		}
		return nil
	},
}

func init() {
	videosCmd.AddCommand(videosTermsCmd)
	videosCmd.AddCommand(videosShowCmd)
}

func openVideoStore() (*videodb.Store, func(), error) {
	cfg, err := InitConfigWithError()
	if err != nil {
		return nil, nil, err
	}

	recorder, syncLogger, err := newRecorder(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := videodb.Open(cfg.DBPath(), recorder)
	if err != nil {
		syncLogger()
		return nil, nil, err
	}
	return store, func() {
		_ = store.Close()
		syncLogger()
	}, nil
}
