package input

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

func explainStatement(sql string, jsonFormat bool) string {
	if jsonFormat {
		return "EXPLAIN (ANALYZE, VERBOSE, BUFFERS, FORMAT JSON) " + sql
	}
	return "EXPLAIN (ANALYZE, VERBOSE, BUFFERS) " + sql
}

// Execute runs EXPLAIN ANALYZE for sql inside a transaction that is always
// rolled back, and returns the report as the server printed it.
func Execute(ctx context.Context, dbConn string, sql string, jsonFormat bool) (string, error) {
	conn, err := pgx.Connect(ctx, dbConn)
	if err != nil {
		return "", fmt.Errorf("connecting to database: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, explainStatement(sql, jsonFormat))
	if err != nil {
		return "", fmt.Errorf("executing EXPLAIN: %w", err)
	}

	lines, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return "", fmt.Errorf("reading EXPLAIN output: %w", err)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("EXPLAIN returned no rows")
	}

	return strings.Join(lines, "\n"), nil
}
