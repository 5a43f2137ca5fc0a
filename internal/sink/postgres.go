// Package sink bulk-loads a wide or hourly relation.Table into Postgres,
// grounded in the teacher's COPY-based bulk loader (hospital_to_duckdb's
// load_pg.go): a pooled connection, a single CopyFrom per table, and a
// schema inferred from the table's own dynamic column set rather than a
// fixed struct (the wide/hourly tables have no closed column list — every
// dataset pivots a different set of categories).
package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clif/internal/relation"
)

// PostgresSink bulk-loads relation.Tables via COPY.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects a pool to connStr (teacher's load_pg.go uses the
// same pgxpool.ParseConfig + Ping pattern).
func NewPostgresSink(ctx context.Context, connStr string) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection: %w", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}

// EnsureTable creates tableName if it doesn't already exist, with one
// column per t.Columns, typed by scanning t's rows for the first non-null
// Value.Kind seen in that column (defaulting to TEXT when every value is
// null — an all-null ghost column, spec §4.1 step 9, still needs a type).
func (s *PostgresSink) EnsureTable(ctx context.Context, tableName string, t *relation.Table) error {
	var cols []string
	for _, c := range t.Columns {
		cols = append(cols, fmt.Sprintf("%q %s", c, pgType(t, c)))
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", tableName, strings.Join(cols, ", "))
	_, err := s.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensure table %s: %w", tableName, err)
	}
	return nil
}

func pgType(t *relation.Table, col string) string {
	for _, r := range t.Rows {
		v := r.Get(col)
		switch v.Kind {
		case relation.KindNumeric:
			return "DOUBLE PRECISION"
		case relation.KindText:
			return "TEXT"
		case relation.KindTimestamp:
			return "TIMESTAMPTZ"
		case relation.KindBool:
			return "BOOLEAN"
		}
	}
	return "TEXT"
}

// CopyInto bulk-loads every row of t into tableName via a single COPY,
// returning the number of rows copied.
func (s *PostgresSink) CopyInto(ctx context.Context, tableName string, t *relation.Table) (int64, error) {
	rows := make([][]interface{}, len(t.Rows))
	for i, r := range t.Rows {
		vals := make([]interface{}, len(t.Columns))
		for j, c := range t.Columns {
			vals[j] = toPgValue(r.Get(c))
		}
		rows[i] = vals
	}

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{tableName}, t.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", tableName, err)
	}
	return n, nil
}

func toPgValue(v relation.Value) interface{} {
	switch v.Kind {
	case relation.KindNumeric:
		f, _ := v.Float()
		return f
	case relation.KindText:
		s, _ := v.Str()
		return s
	case relation.KindTimestamp:
		t, _ := v.Time()
		return t
	case relation.KindBool:
		b, _ := v.BoolVal()
		return b
	default:
		return nil
	}
}
