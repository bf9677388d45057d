package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYears(t *testing.T) {
	years, err := ParseYears("2024, 2019-2021,2020")
	require.NoError(t, err)
	assert.Equal(t, []int{2019, 2020, 2021, 2024}, years)

	for _, bad := range []string{"", "abc", "2021-2019", "1850", "2020-x"} {
		_, err := ParseYears(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CVELENS_ADDR", ":9999")
	t.Setenv("CVELENS_GRPC", "9100")
	t.Setenv("CVELENS_DB", "/tmp/x.db")
	t.Setenv("CVELENS_YEARS", "2022-2023")
	t.Setenv("CVELENS_DEBUG", "true")
	t.Setenv("CVELENS_ALLOWED_ORIGINS", "http://a, http://b")
	t.Setenv("NVD_API_KEY", "key")

	cfg := Load()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 9100, cfg.GRPCPort)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, []int{2022, 2023}, cfg.Years)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowedOrigins)
	assert.Equal(t, "key", cfg.APIKey)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CVELENS_DB", "/tmp/x.db")
	t.Setenv("CVELENS_GRPC", "not-a-port")
	t.Setenv("CVELENS_YEARS", "soon")
	t.Setenv("CVELENS_DEBUG", "maybe")

	cfg := Load()
	assert.Equal(t, 9000, cfg.GRPCPort)
	assert.Equal(t, []int{2023, 2024, 2025}, cfg.Years)
	assert.False(t, cfg.Debug)
}
