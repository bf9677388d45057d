package cve

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "cve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func score(v float64) *float64 { return &v }

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("UpsertRecord", func(t *testing.T) {
		rec := domain.CVERecord{
			ID:           "CVE-2024-0001",
			Description:  "Reflected XSS in search",
			CWE:          "CWE-79",
			Vendor:       "acme",
			Product:      "portal",
			PublishDate:  "2024-06-01",
			CVSSScore:    score(6.1),
			AttackType:   domain.AttackXSS,
			SeverityBand: domain.SeverityMedium,
		}
		require.NoError(t, repo.UpsertRecord(ctx, rec))

		got, err := repo.GetByID(ctx, "CVE-2024-0001")
		require.NoError(t, err)
		assert.Equal(t, rec, *got)

		rec.Description = "updated"
		require.NoError(t, repo.UpsertRecord(ctx, rec))
		got, err = repo.GetByID(ctx, "CVE-2024-0001")
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Description)
	})

	t.Run("GetByID missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "CVE-0000-0000")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("UpsertBatch and List", func(t *testing.T) {
		n, err := repo.UpsertBatch(ctx, []domain.CVERecord{
			{ID: "CVE-2024-0002", CWE: "CWE-89", Vendor: "Initech", PublishDate: "2024-07-01", AttackType: domain.AttackSQLi},
			{ID: "CVE-2024-0003", CWE: "CWE-89", Vendor: "globex", PublishDate: "2024-05-01", AttackType: domain.AttackSQLi},
			{ID: "CVE-2024-0004"},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		all, err := repo.List(ctx, domain.RecordFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "CVE-2024-0002", all[0].ID, "newest first")
		assert.Nil(t, all[3].CVSSScore)

		sqli, err := repo.List(ctx, domain.RecordFilter{AttackType: domain.AttackSQLi, Limit: 1})
		require.NoError(t, err)
		require.Len(t, sqli, 1)
		assert.Equal(t, "CVE-2024-0002", sqli[0].ID)

		byVendor, err := repo.List(ctx, domain.RecordFilter{Vendor: "initech"})
		require.NoError(t, err)
		require.Len(t, byVendor, 1)

		banded, err := repo.List(ctx, domain.RecordFilter{SeverityBand: domain.SeverityMedium})
		require.NoError(t, err)
		require.Len(t, banded, 1)
	})

	t.Run("Counts", func(t *testing.T) {
		total, err := repo.GetTotalCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		counts, err := repo.CountByAttackType(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[domain.AttackType]int{domain.AttackXSS: 1, domain.AttackSQLi: 2}, counts)
	})

	t.Run("SyncStatus", func(t *testing.T) {
		zero, err := repo.GetLastSyncTime(ctx)
		require.NoError(t, err)
		assert.True(t, zero.IsZero())

		t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
		t2 := t1.Add(time.Hour)
		require.NoError(t, repo.UpdateSyncStatus(ctx, domain.CVESyncStatus{Year: 2024, LastSyncTime: t1, RecordCount: 10}))
		require.NoError(t, repo.UpdateSyncStatus(ctx, domain.CVESyncStatus{Year: 2023, LastSyncTime: t2, ErrorMessage: "boom"}))
		require.NoError(t, repo.UpdateSyncStatus(ctx, domain.CVESyncStatus{Year: 2024, LastSyncTime: t1, RecordCount: 12}))

		last, err := repo.GetLastSyncTime(ctx)
		require.NoError(t, err)
		assert.True(t, last.Equal(t2))

		all, err := repo.ListSyncStatus(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, 2023, all[0].Year)
		assert.Equal(t, "boom", all[0].ErrorMessage)
		assert.Equal(t, 12, all[1].RecordCount)
	})
}

func TestNewSQLiteRepository_Memory(t *testing.T) {
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.UpsertRecord(ctx, domain.CVERecord{ID: "CVE-1"}))
	n, err := repo.GetTotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCSV(t *testing.T) {
	in := "cve_id,description,cvss_score,cwe,vendor,product,publish_date,type\n" +
		"CVE-2024-1,\"XSS, reflected\",Medium,CWE-79,acme,web,2024-06-01,XSS\n" +
		"CVE-2024-2,sqli,9.8,CWE-89,,,,\n" +
		"CVE-2024-3,unknown,,,,,,Phishing\n"

	records, err := LoadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "XSS, reflected", records[0].Description)
	assert.Equal(t, domain.SeverityMedium, records[0].SeverityBand)
	assert.Equal(t, domain.AttackXSS, records[0].AttackType)
	assert.Nil(t, records[0].CVSSScore)

	require.NotNil(t, records[1].CVSSScore)
	assert.Equal(t, 9.8, *records[1].CVSSScore)
	assert.Equal(t, domain.SeverityCritical, records[1].SeverityBand)

	assert.Empty(t, records[2].AttackType, "labels outside the closed set are dropped")
	assert.Empty(t, records[2].SeverityBand)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	again, err := LoadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records[0], again[0])
	assert.Equal(t, domain.SeverityCritical, again[1].SeverityBand)
}

func TestLoadCSV_MissingColumn(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("cve_id,cwe\nCVE-1,CWE-79\n"))
	assert.Error(t, err)
}

func TestSeedLoader(t *testing.T) {
	repo := newTestRepo(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"cve_id":"CVE-2024-10","description":"x"},{"cve_id":"CVE-2024-11"}]`), 0o644))
	csvPath := filepath.Join(dir, "seed.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("cve_id,description\nCVE-2024-12,y\n"), 0o644))

	loader := NewSeedLoader(repo, nil)
	n, err := loader.LoadFromMultipleFiles(context.Background(), []string{jsonPath, csvPath, filepath.Join(dir, "missing.json")})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	status, err := repo.ListSyncStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Equal(t, 3, status[0].RecordCount)
	assert.NotEmpty(t, status[0].ErrorMessage)
}
