package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/cvelens/internal/config"
	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/services/serving"
)

type fakeFeed struct {
	years map[int][]domain.CVERecord
}

func (f fakeFeed) FetchYear(_ context.Context, year int) ([]domain.CVERecord, error) {
	recs, ok := f.years[year]
	if !ok {
		return nil, errors.New("feed unavailable")
	}
	return recs, nil
}

func score(v float64) *float64 { return &v }

func feedRecords() []domain.CVERecord {
	return []domain.CVERecord{
		{ID: "CVE-2024-0001", CWE: "CWE-79", Description: "Reflected XSS in the search page via innerHTML", Vendor: "acme", Product: "portal", CVSSScore: score(6.1), PublishDate: "2024-01-02"},
		{ID: "CVE-2024-0002", CWE: "CWE-79", Description: "Stored cross-site scripting in comments", Vendor: "acme", Product: "blog", CVSSScore: score(5.4)},
		{ID: "CVE-2024-0003", CWE: "CWE-79", Description: "DOM XSS through javascript: URLs", Vendor: "globex", Product: "portal", CVSSScore: score(6.1)},
		{ID: "CVE-2024-0004", CWE: "CWE-89", Description: "SQL injection via the id parameter allows union select", Vendor: "initech", Product: "erp", CVSSScore: score(9.8)},
		{ID: "CVE-2024-0005", CWE: "CWE-89", Description: "Blind SQLi time-based injection in login", Vendor: "initech", Product: "crm", CVSSScore: score(9.1)},
		{ID: "CVE-2024-0006", CWE: "CWE-89", Description: "Error based sql injection in report export", Vendor: "globex", Product: "erp", CVSSScore: score(8.8)},
		{ID: "CVE-2024-0007", CWE: "CWE-400", Description: "Remote attackers can cause a denial of service (crash)", Vendor: "umbrella", Product: "router", CVSSScore: score(7.5)},
		{ID: "CVE-2024-0008", CWE: "CWE-400", Description: "Resource exhaustion leads to denial of service", Vendor: "umbrella", Product: "switch", CVSSScore: score(5.3)},
		{ID: "CVE-2024-0009", CWE: "CWE-22", Description: "Path traversal with ../ sequences allows arbitrary file read", Vendor: "acme", Product: "files", CVSSScore: score(7.5)},
		{ID: "CVE-2024-0010", CWE: "CWE-22", Description: "Directory traversal in archive extraction", Vendor: "globex", Product: "files", CVSSScore: score(6.5)},
		{ID: "CVE-2024-0011", CWE: "CWE-94", Description: "Remote code execution via template injection", Vendor: "initech", Product: "cms", CVSSScore: score(9.8)},
		{ID: "CVE-2024-0012", CWE: "CWE-94", Description: "Unsafe eval enables code execution", Vendor: "acme", Product: "cms", CVSSScore: score(8.1)},
		{ID: "CVE-2024-0013", Description: "** REJECTED ** duplicate of CVE-2024-0001", CVSSScore: score(5.0)},
	}
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DBPath:       filepath.Join(dir, "db", "cvelens.db"),
		ArtifactPath: filepath.Join(dir, "pipeline", "full_pipeline.json"),
	}
	app, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	app.Feed = fakeFeed{years: map[int][]domain.CVERecord{2024: feedRecords()}}
	app.Actor = "tester@host"
	return app
}

func TestHarvest(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	csvPath := filepath.Join(t.TempDir(), "out", "dataset.csv")

	summary, err := app.Harvest(ctx, []int{2023, 2024}, csvPath)
	require.NoError(t, err)

	assert.Equal(t, 13, summary.Fetched)
	assert.Equal(t, 12, summary.Stored, "withdrawn record dropped")
	assert.Equal(t, 12, summary.Labelled)
	assert.Contains(t, summary.Failed, 2023)

	total, err := app.Repo.GetTotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	rec, err := app.Repo.GetByID(ctx, "CVE-2024-0004")
	require.NoError(t, err)
	assert.Equal(t, domain.AttackSQLi, rec.AttackType)

	statuses, err := app.Repo.ListSyncStatus(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	byYear := map[int]domain.CVESyncStatus{}
	for _, s := range statuses {
		byYear[s.Year] = s
	}
	assert.NotEmpty(t, byYear[2023].ErrorMessage)
	assert.Equal(t, 12, byYear[2024].RecordCount)

	_, err = os.Stat(csvPath)
	assert.NoError(t, err)

	logs, err := app.Store.ListAuditLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionHarvest, logs[0].Action)
	assert.Equal(t, "2023,2024", logs[0].Target)
}

func TestHarvest_AllYearsFail(t *testing.T) {
	app := newTestApp(t)
	_, err := app.Harvest(context.Background(), []int{2001, 2002}, "")
	assert.Error(t, err)
}

func TestTrainAndPredict(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_, err := app.Harvest(ctx, []int{2024}, "")
	require.NoError(t, err)

	out := t.TempDir()
	res, err := app.Train(ctx, TrainRequest{
		PDFPath:  filepath.Join(out, "report.pdf"),
		XLSXPath: filepath.Join(out, "report.xlsx"),
	})
	require.NoError(t, err)
	info := res.Artifact.Info()

	for _, p := range []string{app.Config.ArtifactPath, filepath.Join(out, "report.pdf"), filepath.Join(out, "report.xlsx")} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	stored, _, err := app.Store.LatestArtifact(ctx)
	require.NoError(t, err)
	assert.Equal(t, info.ID, stored.ID)

	preds, err := app.Predict(ctx, []domain.CVERecord{{ID: "CVE-2025-0001", CWE: "CWE-89", Description: "sql injection in login form"}})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "CVE-2025-0001", preds[0].CVEID)
	assert.NotEmpty(t, preds[0].AttackType)
	assert.NotEmpty(t, preds[0].SeverityBand)

	served, ok := app.Service.Info()
	require.True(t, ok)
	assert.Equal(t, info.ID, served.ID)
}

func TestTrain_EmptyCorpus(t *testing.T) {
	app := newTestApp(t)
	_, err := app.Train(context.Background(), TrainRequest{})
	assert.Error(t, err)
}

func TestLoadModel_FallsBackToStore(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_, err := app.Harvest(ctx, []int{2024}, "")
	require.NoError(t, err)
	res, err := app.Train(ctx, TrainRequest{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(app.Config.ArtifactPath))
	app.Service = serving.NewService(app.Store, app.Factory, app.Logger)

	info, err := app.LoadModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Artifact.Info().ID, info.ID)
}

func TestLoadModel_NothingAvailable(t *testing.T) {
	app := newTestApp(t)
	_, err := app.LoadModel(context.Background())
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}
