package store

import "context"

// TruncateAnalyses empties the analyses table.
func TruncateAnalyses(ctx context.Context, s *PostgresStore) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE analyses")
	return err
}
