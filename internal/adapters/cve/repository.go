package cve

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

//go:embed schema.sql
var schemaSQL string

const recordColumns = `cve_id, description, cwe, vendor, product, publish_date, cvss_score, attack_type, severity_band`

const upsertQuery = `
	INSERT INTO cve_records (` + recordColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(cve_id) DO UPDATE SET
		description = excluded.description,
		cwe = excluded.cwe,
		vendor = excluded.vendor,
		product = excluded.product,
		publish_date = excluded.publish_date,
		cvss_score = excluded.cvss_score,
		attack_type = excluded.attack_type,
		severity_band = excluded.severity_band,
		updated_at = CURRENT_TIMESTAMP
`

// SQLiteRepository implements ports.CVERepository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.CVERepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a new SQLite-based CVE repository.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// GetByID retrieves a specific CVE by its ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, cveID string) (*domain.CVERecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM cve_records WHERE cve_id = ?`, cveID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, cveID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get CVE: %w", err)
	}
	return &rec, nil
}

// List returns records matching the filter, newest publish date first.
func (r *SQLiteRepository) List(ctx context.Context, filter domain.RecordFilter) ([]domain.CVERecord, error) {
	var conditions []string
	var args []interface{}

	if filter.AttackType != "" {
		conditions = append(conditions, "attack_type = ?")
		args = append(args, string(filter.AttackType))
	}
	if filter.SeverityBand != "" {
		conditions = append(conditions, "severity_band = ?")
		args = append(args, string(filter.SeverityBand))
	}
	if filter.Vendor != "" {
		conditions = append(conditions, "LOWER(vendor) = LOWER(?)")
		args = append(args, filter.Vendor)
	}

	query := `SELECT ` + recordColumns + ` FROM cve_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY publish_date DESC, cve_id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []domain.CVERecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertRecord inserts or updates a CVE record.
func (r *SQLiteRepository) UpsertRecord(ctx context.Context, rec domain.CVERecord) error {
	_, err := r.db.ExecContext(ctx, upsertQuery, recordArgs(rec)...)
	return err
}

// UpsertBatch writes records in one transaction and returns how many were written.
func (r *SQLiteRepository) UpsertBatch(ctx context.Context, records []domain.CVERecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, recordArgs(rec)...); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return len(records), nil
}

// GetLastSyncTime returns the most recent sync across all feed years.
func (r *SQLiteRepository) GetLastSyncTime(ctx context.Context) (time.Time, error) {
	var lastSync sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT MAX(last_sync_time) FROM cve_sync_status").Scan(&lastSync)
	if err != nil {
		return time.Time{}, err
	}
	if !lastSync.Valid {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, lastSync.String)
}

// UpdateSyncStatus records the outcome of syncing one feed year.
func (r *SQLiteRepository) UpdateSyncStatus(ctx context.Context, status domain.CVESyncStatus) error {
	query := `
		INSERT INTO cve_sync_status (year, last_sync_time, record_count, error_message)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(year) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			record_count = excluded.record_count,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query,
		status.Year,
		status.LastSyncTime.UTC().Format(time.RFC3339),
		status.RecordCount,
		status.ErrorMessage,
	)
	return err
}

// ListSyncStatus returns the sync status of every year, oldest year first.
func (r *SQLiteRepository) ListSyncStatus(ctx context.Context) ([]domain.CVESyncStatus, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT year, last_sync_time, record_count, error_message FROM cve_sync_status ORDER BY year")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []domain.CVESyncStatus
	for rows.Next() {
		var s domain.CVESyncStatus
		var ts string
		if err := rows.Scan(&s.Year, &ts, &s.RecordCount, &s.ErrorMessage); err != nil {
			return nil, err
		}
		s.LastSyncTime, _ = time.Parse(time.RFC3339, ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountByAttackType returns the number of records per attack type. Unlabelled
// records are left out.
func (r *SQLiteRepository) CountByAttackType(ctx context.Context) (map[domain.AttackType]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT attack_type, COUNT(*) FROM cve_records WHERE attack_type != '' GROUP BY attack_type")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.AttackType]int)
	for rows.Next() {
		var at string
		var n int
		if err := rows.Scan(&at, &n); err != nil {
			return nil, err
		}
		counts[domain.AttackType(at)] = n
	}
	return counts, rows.Err()
}

// GetTotalCount returns the total number of CVE records.
func (r *SQLiteRepository) GetTotalCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cve_records").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func recordArgs(rec domain.CVERecord) []interface{} {
	var score sql.NullFloat64
	if rec.CVSSScore != nil {
		score = sql.NullFloat64{Float64: *rec.CVSSScore, Valid: true}
	}
	return []interface{}{
		rec.ID, rec.Description, rec.CWE, rec.Vendor, rec.Product, rec.PublishDate,
		score, string(rec.AttackType), string(rec.SeverityBand),
	}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (domain.CVERecord, error) {
	var rec domain.CVERecord
	var score sql.NullFloat64
	var attack, band string

	err := s.Scan(
		&rec.ID, &rec.Description, &rec.CWE, &rec.Vendor, &rec.Product, &rec.PublishDate,
		&score, &attack, &band,
	)
	if err != nil {
		return rec, err
	}

	if score.Valid {
		v := score.Float64
		rec.CVSSScore = &v
	}
	rec.AttackType = domain.AttackType(attack)
	rec.SeverityBand = domain.SeverityBand(band)
	return rec, nil
}
