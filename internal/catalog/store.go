package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const entryColumns = "id, path, size_bytes, duration_seconds, has_audio, has_subtitles, audio_language, status, output_path, error_message, scanned_at, updated_at"

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the catalog database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas below are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Upsert records probe results for e.Path. A rescan of a known file keeps its
// status unless the file changed size, which resets it to pending.
func (s *Store) Upsert(ctx context.Context, e Entry) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.exec(ctx,
		`INSERT INTO media_files (
            path, size_bytes, duration_seconds, has_audio, has_subtitles,
            audio_language, status, scanned_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            status = CASE WHEN media_files.size_bytes = excluded.size_bytes
                THEN media_files.status ELSE excluded.status END,
            error_message = CASE WHEN media_files.size_bytes = excluded.size_bytes
                THEN media_files.error_message ELSE NULL END,
            size_bytes = excluded.size_bytes,
            duration_seconds = excluded.duration_seconds,
            has_audio = excluded.has_audio,
            has_subtitles = excluded.has_subtitles,
            audio_language = excluded.audio_language,
            scanned_at = excluded.scanned_at,
            updated_at = excluded.updated_at`,
		e.Path,
		e.SizeBytes,
		e.Duration.Seconds(),
		boolToInt(e.HasAudio),
		boolToInt(e.HasSubtitles),
		nullableString(e.AudioLanguage),
		StatusPending,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", e.Path, err)
	}
	return nil
}

// Get fetches an entry by path. It returns nil when the path is unknown.
func (s *Store) Get(ctx context.Context, path string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM media_files WHERE path = ?`, path)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// Pending returns eligible files, shortest first. limit <= 0 means no limit.
func (s *Store) Pending(ctx context.Context, limit int) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM media_files
        WHERE has_audio = 1 AND has_subtitles = 0 AND status = ?
        ORDER BY duration_seconds ASC, path ASC`
	args := []any{StatusPending}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// List returns entries filtered by status set (or all entries when none is
// given), ordered by path.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM media_files`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY path`
	return s.query(ctx, query, args...)
}

// MarkDone records a finished transcription and its output path.
func (s *Store) MarkDone(ctx context.Context, path, output string) error {
	return s.setStatus(ctx, path, StatusDone, output, "")
}

// MarkSkipped records that the output already existed.
func (s *Store) MarkSkipped(ctx context.Context, path, output string) error {
	return s.setStatus(ctx, path, StatusSkipped, output, "")
}

// MarkFailed records a failed run with its error message.
func (s *Store) MarkFailed(ctx context.Context, path string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.setStatus(ctx, path, StatusFailed, "", msg)
}

// Reset puts failed entries back to pending and returns how many changed.
func (s *Store) Reset(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE media_files SET status = ?, error_message = NULL, updated_at = ? WHERE status = ?`,
		StatusPending, time.Now().UTC().Format(time.RFC3339Nano), StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("reset failed entries: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) setStatus(ctx context.Context, path string, status Status, output, message string) error {
	res, err := s.exec(ctx,
		`UPDATE media_files SET status = ?, output_path = ?, error_message = ?, updated_at = ? WHERE path = ?`,
		status,
		nullableString(output),
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		path,
	)
	if err != nil {
		return fmt.Errorf("mark %s %s: %w", path, status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark %s %s: not in catalog", path, status)
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id           int64
		path         string
		size         int64
		duration     float64
		hasAudio     int64
		hasSubtitles int64
		language     sql.NullString
		status       string
		output       sql.NullString
		errorMessage sql.NullString
		scannedRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&path,
		&size,
		&duration,
		&hasAudio,
		&hasSubtitles,
		&language,
		&status,
		&output,
		&errorMessage,
		&scannedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:            id,
		Path:          path,
		SizeBytes:     size,
		Duration:      time.Duration(duration * float64(time.Second)),
		HasAudio:      hasAudio != 0,
		HasSubtitles:  hasSubtitles != 0,
		AudioLanguage: language.String,
		Status:        Status(status),
		OutputPath:    output.String,
		ErrorMessage:  errorMessage.String,
	}
	if scanned, err := time.Parse(time.RFC3339Nano, scannedRaw.String); err == nil {
		entry.ScannedAt = scanned
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
