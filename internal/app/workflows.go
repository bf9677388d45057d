package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lcalzada-xor/cvelens/internal/adapters/cve"
	"github.com/lcalzada-xor/cvelens/internal/adapters/reporting"
	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/services/labeler"
	"github.com/lcalzada-xor/cvelens/internal/core/services/pipeline"
	"github.com/lcalzada-xor/cvelens/internal/core/services/textnorm"
)

// HarvestSummary reports one harvest run.
type HarvestSummary struct {
	Years    []int
	Fetched  int
	Stored   int
	Labelled int
	Failed   map[int]error
}

// Harvest downloads each year, cleans and labels the records, stores them and
// optionally writes the combined dataset to csvPath. A failing year is recorded in
// the sync status and skipped; the run fails only when every year failed.
func (app *Application) Harvest(ctx context.Context, years []int, csvPath string) (*HarvestSummary, error) {
	summary := &HarvestSummary{Years: years, Failed: make(map[int]error)}
	lab := labeler.New(nil)
	var all []domain.CVERecord

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		status := domain.CVESyncStatus{Year: year, LastSyncTime: time.Now().UTC()}

		raw, err := app.Feed.FetchYear(ctx, year)
		if err != nil {
			app.Logger.Error("Feed download failed", "year", year, "error", err)
			summary.Failed[year] = err
			status.ErrorMessage = err.Error()
			app.updateSync(ctx, status)
			continue
		}
		summary.Fetched += len(raw)

		cleaned, _ := textnorm.CleanRecords(raw, textnorm.ModeTraining, app.Logger)
		labelled, n := lab.LabelRecords(cleaned)
		summary.Labelled += n

		stored, err := app.Repo.UpsertBatch(ctx, labelled)
		if err != nil {
			summary.Failed[year] = err
			status.ErrorMessage = err.Error()
			app.updateSync(ctx, status)
			continue
		}
		summary.Stored += stored
		status.RecordCount = stored
		app.updateSync(ctx, status)
		all = append(all, labelled...)

		app.Logger.Info("Harvested feed year", "year", year, "fetched", len(raw), "stored", stored)
	}

	if len(years) > 0 && len(summary.Failed) == len(years) {
		return summary, fmt.Errorf("harvest: all %d years failed", len(years))
	}

	if csvPath != "" {
		if err := writeCSVFile(csvPath, all); err != nil {
			return summary, err
		}
		app.Logger.Info("Dataset written", "path", csvPath, "rows", len(all))
	}

	app.record(ctx, domain.ActionHarvest, joinYears(years),
		fmt.Sprintf("fetched=%d stored=%d failed=%d", summary.Fetched, summary.Stored, len(summary.Failed)))
	return summary, nil
}

// Seed imports local JSON or CSV datasets into the record repository.
func (app *Application) Seed(ctx context.Context, paths []string) (int, error) {
	loader := cve.NewSeedLoader(app.Repo, app.Logger)
	n, err := loader.LoadFromMultipleFiles(ctx, paths)
	if err != nil {
		return n, err
	}
	app.record(ctx, domain.ActionHarvest, strings.Join(paths, ","), fmt.Sprintf("seeded=%d", n))
	return n, nil
}

func (app *Application) updateSync(ctx context.Context, status domain.CVESyncStatus) {
	if err := app.Repo.UpdateSyncStatus(ctx, status); err != nil {
		app.Logger.Warn("Failed to update sync status", "year", status.Year, "error", err)
	}
}

// TrainRequest selects the training corpus and the optional outputs of a run.
type TrainRequest struct {
	// DatasetPath trains from a CSV or JSON file instead of the record repository.
	DatasetPath string
	PDFPath     string
	XLSXPath    string
	Options     pipeline.TrainOptions
}

// Train fits a pipeline, writes the artifact file, stores the artifact and exports
// the requested reports.
func (app *Application) Train(ctx context.Context, req TrainRequest) (*pipeline.Result, error) {
	records, err := app.trainingRecords(ctx, req.DatasetPath)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("train: corpus is empty")
	}

	opts := req.Options
	if opts == (pipeline.TrainOptions{}) {
		opts = pipeline.DefaultTrainOptions()
	}
	trainer := pipeline.NewTrainer(app.Scorer, app.Factory, app.Logger)
	result, err := trainer.Train(ctx, records, opts)
	if err != nil {
		return nil, err
	}
	info := result.Artifact.Info()
	app.record(ctx, domain.ActionTrain, info.ID, fmt.Sprintf("rows=%d attack_acc=%.3f severity_acc=%.3f",
		result.Stats.Rows, info.AttackAccuracy, info.SeverityAccuracy))

	if err := os.MkdirAll(filepath.Dir(app.Config.ArtifactPath), 0755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	if err := result.Artifact.WriteFile(app.Config.ArtifactPath); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	payload, err := result.Artifact.Marshal()
	if err != nil {
		return nil, err
	}
	if err := app.Store.SaveArtifact(ctx, info, payload); err != nil {
		return nil, fmt.Errorf("store artifact: %w", err)
	}
	app.record(ctx, domain.ActionArtifactSaved, info.ID, app.Config.ArtifactPath)
	app.Logger.Info("Artifact saved", "id", info.ID, "path", app.Config.ArtifactPath)

	if err := app.exportReports(result, req.PDFPath, req.XLSXPath); err != nil {
		return result, err
	}
	return result, nil
}

func (app *Application) trainingRecords(ctx context.Context, path string) ([]domain.CVERecord, error) {
	if path == "" {
		return app.Repo.List(ctx, domain.RecordFilter{})
	}
	return cve.ReadFile(path)
}

func (app *Application) exportReports(result *pipeline.Result, pdfPath, xlsxPath string) error {
	if pdfPath == "" && xlsxPath == "" {
		return nil
	}
	report := result.Report(app.Actor)

	if pdfPath != "" {
		data, err := reporting.NewPDFExporter().ExportTrainingReport(&report)
		if err != nil {
			return fmt.Errorf("pdf report: %w", err)
		}
		if err := os.WriteFile(pdfPath, data, 0644); err != nil {
			return fmt.Errorf("write pdf report: %w", err)
		}
		app.Logger.Info("PDF report written", "path", pdfPath)
	}
	if xlsxPath != "" {
		data, err := reporting.NewXLSXExporter().ExportTrainingReport(&report)
		if err != nil {
			return fmt.Errorf("xlsx report: %w", err)
		}
		if err := os.WriteFile(xlsxPath, data, 0644); err != nil {
			return fmt.Errorf("write xlsx report: %w", err)
		}
		app.Logger.Info("XLSX report written", "path", xlsxPath)
	}
	return nil
}

// Predict classifies records with the served artifact, loading it first if needed.
func (app *Application) Predict(ctx context.Context, records []domain.CVERecord) ([]domain.Prediction, error) {
	if _, ok := app.Service.Info(); !ok {
		if _, err := app.LoadModel(ctx); err != nil {
			return nil, err
		}
	}
	return app.Service.Predict(ctx, records)
}

func writeCSVFile(path string, records []domain.CVERecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := cve.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func joinYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ",")
}
