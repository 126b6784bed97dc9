// Package repository implements the log and portal user stores on
// PostgreSQL through a pgx connection pool.
package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openrangelabs/middleware/pkg/model"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the tern migrations that create the three tables.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)
)

var readOnly = pgx.TxOptions{AccessMode: pgx.ReadOnly}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	list := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

// paged runs the COUNT and the page SELECT in one read-only transaction.
func paged[T any](ctx context.Context, pool *pgxpool.Pool, table, columns, where string, args []any, orderBy string, page model.PageRequest, scan func(pgx.Row) (T, error)) (model.Page[T], error) {
	page = page.Normalize()
	var out model.Page[T]
	err := pgx.BeginTxFunc(ctx, pool, readOnly, func(tx pgx.Tx) error {
		var total int64
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&total); err != nil {
			return err
		}
		n := len(args)
		query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
			columns, table, where, orderBy, n+1, n+2)
		rows, err := tx.Query(ctx, query, append(slices.Clip(args), page.Size, page.Offset())...)
		if err != nil {
			return err
		}
		items, err := collect(rows, scan)
		if err != nil {
			return err
		}
		out = model.NewPage(items, page, total)
		return nil
	})
	return out, err
}

func countGrouped(ctx context.Context, q querier, query string, args ...any) (map[string]int64, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	clauses []string
	args    []any
}

// add appends "<cond> $n" for val.
func (w *where) add(cond string, val any) {
	w.args = append(w.args, val)
	w.clauses = append(w.clauses, fmt.Sprintf("%s $%d", cond, len(w.args)))
}

func (w *where) String() string {
	return strings.Join(append([]string{"1=1"}, w.clauses...), " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, lowercased.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
