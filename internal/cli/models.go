package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/termdeposit/benchmark"
)

func modelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the benchmark zoo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			zoo := benchmark.DefaultZoo(a.cfg)
			rows := make([][]string, 0, len(zoo))
			for _, s := range zoo {
				rows = append(rows, []string{s.Name, s.Family, s.Encoding.String(), s.Scale.String()})
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(),
				render("models", []string{"id", "family", "encoding", "scaling"}, rows))
			return err
		},
	}
}
