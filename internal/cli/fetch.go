package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/termdeposit/dataset"
)

func fetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the dataset archive and extract the CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := a.cfg.CacheDir()
			if dir == "" {
				dir = a.cfg.OutputDir()
			}
			path, err := dataset.Fetch(cmd.Context(), a.cfg.DatasetURL(), a.cfg.DatasetMember(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
