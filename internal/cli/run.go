package cli

import (
	"github.com/spf13/cobra"
)

// runCmd is explore followed by evaluate on one download.
func runCmd(a *app) *cobra.Command {
	var ef evalFlags
	c := &cobra.Command{
		Use:   "run",
		Short: "Explore the data, then evaluate the classifier zoo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			zoo, err := a.zoo(ef)
			if err != nil {
				return err
			}
			f, err := a.loadFrame(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := a.explore(w, f); err != nil {
				return err
			}
			_, err = a.evaluate(cmd.Context(), w, f, zoo, ef.metric)
			return err
		},
	}
	ef.register(c)
	bindPlots(a, c)
	return c
}
