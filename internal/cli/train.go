package cli

import (
	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/cvelens/internal/app"
	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/services/pipeline"
)

type trainOutput struct {
	Artifact   domain.ArtifactInfo  `json:"artifact"`
	Stats      domain.TrainingStats `json:"stats"`
	Evaluation domain.Evaluation    `json:"evaluation"`
}

func newTrainCommand(opts *rootOptions) *cobra.Command {
	req := app.TrainRequest{Options: pipeline.DefaultTrainOptions()}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the classification pipeline and save the artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.openApp()
			if err != nil {
				return err
			}
			defer application.Close()

			res, err := application.Train(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), trainOutput{
				Artifact:   res.Artifact.Info(),
				Stats:      res.Stats,
				Evaluation: res.Evaluation,
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.DatasetPath, "dataset", "", "train from a CSV or JSON dataset instead of the database")
	f.StringVar(&req.PDFPath, "pdf", "", "write a PDF training report")
	f.StringVar(&req.XLSXPath, "xlsx", "", "write an XLSX workbook with evaluation and features")
	f.Float64Var(&req.Options.TestFraction, "test-fraction", req.Options.TestFraction, "hold-out fraction")
	f.Int64Var(&req.Options.Seed, "split-seed", req.Options.Seed, "random seed for the hold-out split")
	f.IntVar(&req.Options.Folds, "folds", req.Options.Folds, "cross-validation folds")
	return cmd
}
