package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
	"github.com/rahul/deepdive/internal/agent"
)

// ErrNotFound is returned by Get when no archived report matches.
var ErrNotFound = errors.New("report not found")

// Archive keeps finished reports in a sqlite database. Plans and step
// results are never stored.
type Archive struct {
	DB *sql.DB
}

func NewArchive(dbPath string) (*Archive, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			objective TEXT,
			body TEXT,
			path TEXT,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS reports_created_at ON reports (created_at);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Archive{DB: db}, nil
}

func (a *Archive) Name() string { return "archive" }

// Publish stores the report under its run id.
func (a *Archive) Publish(ctx context.Context, r agent.Report) error {
	id := r.RunID
	if id == "" {
		id = uuid.NewString()
	}
	created := r.GeneratedAt
	if created.IsZero() {
		created = time.Now()
	}
	query := `INSERT OR REPLACE INTO reports (id, topic, objective, body, path, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := a.DB.ExecContext(ctx, query, id, r.Topic, r.Objective, r.Body, r.Path, created.UTC().Format(time.RFC3339Nano))
	return err
}

// List returns the most recent reports first.
func (a *Archive) List(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, topic, path, created_at FROM reports ORDER BY created_at DESC LIMIT ?`
	rows, err := a.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var s ReportSummary
		var path sql.NullString
		var created string
		if err := rows.Scan(&s.ID, &s.Topic, &path, &created); err != nil {
			return nil, err
		}
		s.Path = path.String
		s.CreatedAt = parseTime(created)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns the report whose id is or starts with id.
func (a *Archive) Get(ctx context.Context, id string) (*ArchivedReport, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	query := `SELECT id, topic, objective, body, path, created_at FROM reports WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC, created_at DESC LIMIT 1`
	row := a.DB.QueryRowContext(ctx, query, id, likePrefix(id), id)

	var r ArchivedReport
	var objective, body, path sql.NullString
	var created string
	if err := row.Scan(&r.ID, &r.Topic, &objective, &body, &path, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.Objective, r.Body, r.Path = objective.String, body.String, path.String
	r.CreatedAt = parseTime(created)
	return &r, nil
}

// likePrefix escapes LIKE wildcards so id only matches literally.
func likePrefix(id string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(id) + "%"
}

func (a *Archive) Close() error {
	return a.DB.Close()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
