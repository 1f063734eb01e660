package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiribu/money-tracker/internal/domain"
	"github.com/kiribu/money-tracker/internal/pkg/apperr"
	"go.uber.org/zap"
)

type Repository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRepository(db *pgxpool.Pool, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

// ledgerTable returns the table and date column backing a ledger.
func ledgerTable(kind domain.Kind) (table, dateColumn string, err error) {
	switch kind {
	case domain.KindExpense:
		return "expenses", "expense_date", nil
	case domain.KindIncome:
		return "incomes", "income_date", nil
	default:
		return "", "", apperr.Validation("invalid transaction type %q", kind)
	}
}

// whereBuilder collects AND-ed conditions, numbering each ? placeholder in order.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) period(column string, p domain.Period) {
	if !p.From.IsZero() {
		w.add(column+" >= ?", domain.DateOf(p.From))
	}
	if !p.To.IsZero() {
		w.add(column+" <= ?", domain.DateOf(p.To))
	}
}

// next returns the placeholder for an argument appended after the conditions.
func (w *whereBuilder) next(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// mapConstraintError turns constraint violations into domain errors. The
// services check these invariants first; this covers concurrent writers.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23503":
		return apperr.Conflict("record is still referenced by other records")
	case "23505":
		return apperr.Validation("a record with the same name already exists")
	case "23514":
		return apperr.Validation("value violates constraint %s", pgErr.ConstraintName)
	default:
		return err
	}
}
