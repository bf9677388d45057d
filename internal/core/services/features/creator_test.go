package features

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

func vendorFrame(vendors []string) *domain.Frame {
	records := make([]domain.CVERecord, len(vendors))
	for i, v := range vendors {
		records[i] = domain.CVERecord{ID: "CVE-2024-000" + string(rune('0'+i)), Vendor: v, Product: "web"}
	}
	return domain.FrameFromRecords(records, false)
}

func numAt(t *testing.T, f *domain.Frame, col string, row int) float64 {
	t.Helper()
	c, ok := f.Column(col)
	require.True(t, ok, "column %s", col)
	require.Equal(t, domain.KindNumeric, c.Kind)
	return c.Num[row]
}

func TestCreator_FrequencyReusedAcrossBatches(t *testing.T) {
	train := vendorFrame([]string{"acme", "acme", "acme", "b", "c", "d", "e", "f", "g", "h"})
	ff, err := NewCreator(nil).Fit(train)
	require.NoError(t, err)

	out := ff.Transform(train)
	for row := 0; row < 3; row++ {
		assert.InDelta(t, 0.3, numAt(t, out, ColVendorFreq, row), 1e-12)
	}

	serving := vendorFrame([]string{"acme", "unseen"})
	got := ff.Transform(serving)
	assert.InDelta(t, 0.3, numAt(t, got, ColVendorFreq, 0), 1e-12)
	assert.Zero(t, numAt(t, got, ColVendorFreq, 1))
	assert.InDelta(t, 1.0, numAt(t, got, ColProductFreq, 0), 1e-12)
	assert.InDelta(t, 0.3, numAt(t, got, ColVendorProductInter, 0), 1e-12)
}

func TestCreator_MissingVendorRatesZero(t *testing.T) {
	train := vendorFrame([]string{"acme", ""})
	ff, err := NewCreator(nil).Fit(train)
	require.NoError(t, err)
	assert.Equal(t, 2, ff.Vendor.Total)

	out := ff.Transform(train)
	assert.InDelta(t, 0.5, numAt(t, out, ColVendorFreq, 0), 1e-12)
	assert.Zero(t, numAt(t, out, ColVendorFreq, 1))
}

func TestCreator_Transform(t *testing.T) {
	records := []domain.CVERecord{
		{ID: "CVE-2024-0001", CWE: "CWE-79", Description: "reflected xss via innerHTML", Vendor: "acme", Product: "web", PublishDate: "2024-06-01"},
		{ID: "CVE-2024-0002", Description: ""},
	}
	f := domain.FrameFromRecords(records, false)
	ff, err := NewCreator(nil).Fit(f)
	require.NoError(t, err)

	out := ff.Transform(f)
	for _, col := range DerivedColumns() {
		c, ok := out.Column(col)
		require.True(t, ok, "column %s", col)
		assert.Equal(t, domain.KindNumeric, c.Kind, "column %s", col)
		assert.Zero(t, c.Missing(), "column %s", col)
	}

	assert.GreaterOrEqual(t, numAt(t, out, "XSS_score", 0), 2.0)
	for _, col := range DerivedColumns() {
		assert.Zero(t, numAt(t, out, col, 1), "empty description row, column %s", col)
	}
	assert.False(t, f.Has(ColDescLen), "input frame untouched")
}

func TestCreator_FitEmpty(t *testing.T) {
	_, err := NewCreator(nil).Fit(domain.NewFrame(0))
	assert.Error(t, err)
}

func TestFittedFeatures_SnapshotRoundTrip(t *testing.T) {
	train := vendorFrame([]string{"acme", "acme", "b"})
	ff, err := NewCreator(nil).Fit(train)
	require.NoError(t, err)

	data, err := json.Marshal(ff.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	restored, err := Restore(snap)
	require.NoError(t, err)

	assert.Equal(t, ff.Vendor, restored.Vendor)
	assert.Equal(t, ff.Product, restored.Product)

	probe := vendorFrame([]string{"acme"})
	assert.Equal(t, numAt(t, ff.Transform(probe), ColVendorFreq, 0), numAt(t, restored.Transform(probe), ColVendorFreq, 0))
}
