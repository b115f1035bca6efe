// Package sqlxrepos implements the repositories on Postgres with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/evalboard/core"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// trapNoRowsErr returns `notFound` when `err` is sql.ErrNoRows.
func trapNoRowsErr(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// checkAffected returns `notFound` when `res` did not touch any row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// contains returns a LIKE pattern matching `s` anywhere.
func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func nullTime(ts core.Timestamp) null.Time {
	if !ts.IsSet() {
		return null.Time{}
	}
	return null.TimeFrom(ts.Time.UTC())
}

func timestamp(nt null.Time, dateOnly bool) core.Timestamp {
	if !nt.Valid {
		return core.Timestamp{}
	}
	t := nt.Time.UTC()
	if dateOnly {
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return core.Timestamp{Time: t, DateOnly: dateOnly}
}

// where joins conditions with AND.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func deleteByID(ctx context.Context, db *sqlx.DB, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = db.ExecContext(ctx, db.Rebind(q), args...)
	return err
}

// replaceAll empties `table` and inserts `rows` with the named `insert` query, in one transaction.
func replaceAll(ctx context.Context, db *sqlx.DB, table, insert string, rows []interface{}) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return errors.Wrap(err, "emptying "+table)
	}
	for _, row := range rows {
		if _, err = tx.NamedExecContext(ctx, insert, row); err != nil {
			return errors.Wrap(err, "inserting into "+table)
		}
	}
	return tx.Commit()
}
