package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const pgAnalysisColumns = `id, keyword, phase, confidence, reasoning,
	social_data, papers_data, patents_data, news_data, finance_data,
	per_source_analyses, query_expansion_applied, expanded_terms, created_at, expires_at`

func (s *PostgresStore) LatestAnalysis(ctx context.Context, keyword string, now time.Time) (*models.ClassificationResult, error) {
	var r models.ClassificationResult
	var row analysisRow
	err := s.pool.QueryRow(ctx,
		`SELECT `+pgAnalysisColumns+`
		 FROM analyses WHERE keyword = $1 AND expires_at > $2
		 ORDER BY created_at DESC LIMIT 1`, keyword, now,
	).Scan(&r.ID, &r.Keyword, &r.Phase, &r.Confidence, &r.Reasoning,
		&row.social, &row.papers, &row.patents, &row.news, &row.finance,
		&row.perSource, &r.QueryExpansionApplied, &row.expandedTerms, &r.CreatedAt, &r.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest analysis: %w", err)
	}

	if err := row.decodeInto(&r); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", r.ID, err)
	}
	return &r, nil
}

func (s *PostgresStore) InsertAnalysis(ctx context.Context, r *models.ClassificationResult) error {
	ensureID(r)
	row, err := encodeAnalysis(r)
	if err != nil {
		return err
	}
	r.RecountSources()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, keyword, phase, confidence, reasoning,
			social_data, papers_data, patents_data, news_data, finance_data,
			per_source_analyses, collectors_succeeded, query_expansion_applied, expanded_terms,
			created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		r.ID, r.Keyword, r.Phase, r.Confidence, r.Reasoning,
		row.social, row.papers, row.patents, row.news, row.finance,
		row.perSource, r.CollectorsSucceeded, r.QueryExpansionApplied, row.expandedTerms,
		r.CreatedAt, r.ExpiresAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]*models.AnalysisSummary, int, error) {
	where := "TRUE"
	args := []any{}
	if filter.Keyword != "" {
		where = "keyword = $1"
		args = append(args, filter.Keyword)
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM analyses WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analyses: %w", err)
	}

	limit, offset := filter.window()
	query := fmt.Sprintf(
		`SELECT id, keyword, phase, confidence, reasoning, collectors_succeeded,
			query_expansion_applied, created_at, expires_at
		 FROM analyses WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	summaries := []*models.AnalysisSummary{}
	for rows.Next() {
		var a models.AnalysisSummary
		if err := rows.Scan(&a.ID, &a.Keyword, &a.Phase, &a.Confidence, &a.Reasoning,
			&a.CollectorsSucceeded, &a.QueryExpansionApplied, &a.CreatedAt, &a.ExpiresAt); err != nil {
			return nil, 0, fmt.Errorf("scan analysis: %w", err)
		}
		summaries = append(summaries, &a)
	}
	return summaries, total, rows.Err()
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
