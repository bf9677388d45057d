package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

func newPredictCommand(opts *rootOptions) *cobra.Command {
	var rec domain.CVERecord

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one CVE described by flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rec.ID == "" {
				return errors.New("--id is required")
			}
			application, err := opts.openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			preds, err := application.Predict(cmd.Context(), []domain.CVERecord{rec})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), preds[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&rec.ID, "id", "", "CVE identifier")
	f.StringVar(&rec.Description, "description", "", "vulnerability description")
	f.StringVar(&rec.CWE, "cwe", "", "CWE identifier, e.g. CWE-79")
	f.StringVar(&rec.Vendor, "vendor", "", "affected vendor")
	f.StringVar(&rec.Product, "product", "", "affected product")
	f.StringVar(&rec.PublishDate, "publish-date", "", "publication date")
	return cmd
}
