package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
	_ "modernc.org/sqlite"
)

// sqliteTime is fixed-width so stored timestamps compare as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analyses (
	id                      TEXT PRIMARY KEY,
	keyword                 TEXT NOT NULL,
	phase                   TEXT NOT NULL,
	confidence              REAL NOT NULL,
	reasoning               TEXT NOT NULL,
	social_data             TEXT,
	papers_data             TEXT,
	patents_data            TEXT,
	news_data               TEXT,
	finance_data            TEXT,
	per_source_analyses     TEXT,
	collectors_succeeded    INTEGER NOT NULL DEFAULT 0,
	query_expansion_applied INTEGER NOT NULL DEFAULT 0,
	expanded_terms          TEXT NOT NULL DEFAULT '[]',
	created_at              TEXT NOT NULL,
	expires_at              TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_keyword_created ON analyses (keyword, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analyses_expires_at ON analyses (expires_at);
`

// SQLiteStore implements the Store interface on an embedded database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database named by dsn. Both
// sqlite://path and file:path forms are accepted.
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection serializes writers on the one database file
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LatestAnalysis(ctx context.Context, keyword string, now time.Time) (*models.ClassificationResult, error) {
	var (
		r                models.ClassificationResult
		id               string
		created, expires string
		expanded         bool
		cols             [7]sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, keyword, phase, confidence, reasoning,
			social_data, papers_data, patents_data, news_data, finance_data,
			per_source_analyses, query_expansion_applied, expanded_terms, created_at, expires_at
		 FROM analyses WHERE keyword = ? AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`, keyword, now.UTC().Format(sqliteTime),
	).Scan(&id, &r.Keyword, &r.Phase, &r.Confidence, &r.Reasoning,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4],
		&cols[5], &expanded, &cols[6], &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest analysis: %w", err)
	}

	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse analysis id %q: %w", id, err)
	}
	if r.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if r.ExpiresAt, err = time.Parse(sqliteTime, expires); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	r.QueryExpansionApplied = expanded

	row := analysisRow{
		social:        nullBytes(cols[0]),
		papers:        nullBytes(cols[1]),
		patents:       nullBytes(cols[2]),
		news:          nullBytes(cols[3]),
		finance:       nullBytes(cols[4]),
		perSource:     nullBytes(cols[5]),
		expandedTerms: nullBytes(cols[6]),
	}
	if err := row.decodeInto(&r); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", r.ID, err)
	}
	return &r, nil
}

func (s *SQLiteStore) InsertAnalysis(ctx context.Context, r *models.ClassificationResult) error {
	ensureID(r)
	row, err := encodeAnalysis(r)
	if err != nil {
		return err
	}
	r.RecountSources()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, keyword, phase, confidence, reasoning,
			social_data, papers_data, patents_data, news_data, finance_data,
			per_source_analyses, collectors_succeeded, query_expansion_applied, expanded_terms,
			created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Keyword, string(r.Phase), r.Confidence, r.Reasoning,
		nullString(row.social), nullString(row.papers), nullString(row.patents),
		nullString(row.news), nullString(row.finance), nullString(row.perSource),
		r.CollectorsSucceeded, r.QueryExpansionApplied, string(row.expandedTerms),
		r.CreatedAt.UTC().Format(sqliteTime), r.ExpiresAt.UTC().Format(sqliteTime))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]*models.AnalysisSummary, int, error) {
	where := "1 = 1"
	args := []any{}
	if filter.Keyword != "" {
		where = "keyword = ?"
		args = append(args, filter.Keyword)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analyses: %w", err)
	}

	limit, offset := filter.window()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, keyword, phase, confidence, reasoning, collectors_succeeded,
			query_expansion_applied, created_at, expires_at
		 FROM analyses WHERE `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	summaries := []*models.AnalysisSummary{}
	for rows.Next() {
		var (
			a                models.AnalysisSummary
			id               string
			created, expires string
		)
		if err := rows.Scan(&id, &a.Keyword, &a.Phase, &a.Confidence, &a.Reasoning,
			&a.CollectorsSucceeded, &a.QueryExpansionApplied, &created, &expires); err != nil {
			return nil, 0, fmt.Errorf("scan analysis: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, 0, fmt.Errorf("parse analysis id %q: %w", id, err)
		}
		if a.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
			return nil, 0, fmt.Errorf("parse created_at: %w", err)
		}
		if a.ExpiresAt, err = time.Parse(sqliteTime, expires); err != nil {
			return nil, 0, fmt.Errorf("parse expires_at: %w", err)
		}
		summaries = append(summaries, &a)
	}
	return summaries, total, rows.Err()
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func nullBytes(s sql.NullString) []byte {
	if !s.Valid {
		return nil
	}
	return []byte(s.String)
}

var _ Store = (*SQLiteStore)(nil)
