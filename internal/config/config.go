package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lcalzada-xor/cvelens/internal/adapters/feed"
)

// Config holds all application configuration.
type Config struct {
	Addr         string
	GRPCPort     int
	DBPath       string
	ArtifactPath string
	VocabPath    string // optional YAML keyword vocabulary
	FeedURL      string
	APIKey       string
	Years        []int
	// AdminTokenHash is a bcrypt hash; empty disables the admin API.
	AdminTokenHash   string
	AllowedOrigins   []string
	PredictRateLimit int
	Debug            bool
}

// Load reads .env (when present) and the environment. Command flags are bound on top
// of the returned values and take precedence.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Could not read .env file", "error", err)
	}

	cfg := &Config{
		Addr:             getEnv("CVELENS_ADDR", ":8000"),
		GRPCPort:         getEnvInt("CVELENS_GRPC", 9000),
		DBPath:           getEnv("CVELENS_DB", getDefaultDBPath()),
		ArtifactPath:     getEnv("CVELENS_ARTIFACT", filepath.Join("pipeline", "full_pipeline.json")),
		VocabPath:        getEnv("CVELENS_VOCAB", ""),
		FeedURL:          getEnv("CVELENS_FEED_URL", feed.DefaultBaseURL),
		APIKey:           getEnv("NVD_API_KEY", ""),
		AdminTokenHash:   getEnv("CVELENS_ADMIN_TOKEN_HASH", ""),
		AllowedOrigins:   splitList(getEnv("CVELENS_ALLOWED_ORIGINS", "")),
		PredictRateLimit: getEnvInt("CVELENS_RATE_LIMIT", 120),
		Debug:            getEnvBool("CVELENS_DEBUG", false),
	}

	years, err := ParseYears(getEnv("CVELENS_YEARS", "2023,2024,2025"))
	if err != nil {
		slog.Warn("Invalid CVELENS_YEARS, using defaults", "error", err)
		years = []int{2023, 2024, 2025}
	}
	cfg.Years = years
	return cfg
}

// ParseYears accepts a comma separated list of years and inclusive ranges, e.g. "2019-2021,2024".
// The result is sorted and deduplicated.
func ParseYears(s string) ([]int, error) {
	seen := make(map[int]bool)
	for _, part := range splitList(s) {
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := parseYear(lo)
		if err != nil {
			return nil, err
		}
		to := from
		if isRange {
			if to, err = parseYear(hi); err != nil {
				return nil, err
			}
			if to < from {
				return nil, fmt.Errorf("invalid year range %q", part)
			}
		}
		for y := from; y <= to; y++ {
			seen[y] = true
		}
	}
	if len(seen) == 0 {
		return nil, errors.New("no years given")
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1999 || y > 2100 {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return y, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns ~/.cvelens/cvelens.db, creating the directory when needed.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("Could not get user home directory, using current dir", "error", err)
		return "cvelens.db"
	}

	dir := filepath.Join(home, ".cvelens")
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("Could not create .cvelens directory, using current dir", "error", err)
		return "cvelens.db"
	}
	return filepath.Join(dir, "cvelens.db")
}
