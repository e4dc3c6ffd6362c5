package cmd

import (
	"context"
	"fmt"

	"github.com/govwallet/sidecar/pkg/service/exportDataService"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:       "export <neurons|transactions>",
	Short:     "Write a CSV report of the principal's neurons or transactions",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(exportDataService.Kind_Neurons), string(exportDataService.Kind_Transactions)},
	RunE: func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd)

		kind, err := exportDataService.ParseKind(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("export")
		if err != nil {
			return err
		}
		defer a.close()

		bar := progressbar.NewOptions(len(a.cfg.Projects),
			progressbar.OptionSetDescription(fmt.Sprintf("exporting %s", kind)),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		res, err := a.exports.Export(context.Background(), kind, func(projectId string) {
			bar.Describe(fmt.Sprintf("exporting %s (%s)", kind, projectId))
			_ = bar.Add(1)
		})
		_ = bar.Finish()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.FilePath)
		return nil
	},
}
