package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Report is the loggable breakdown of an error: the message and code at the
// top, the full unwrap chain, and any postgres driver detail buried inside.
type Report struct {
	Message  string    `json:"message"`
	Code     Code      `json:"code,omitempty"`
	Chain    []string  `json:"chain,omitempty"`
	Postgres *PGDetail `json:"postgres,omitempty"`
}

// PGDetail carries the driver-level fields of a postgres error. Both the pgx
// and lib/pq error types are checked, since migrations and the runtime pool
// go through different drivers.
type PGDetail struct {
	SQLState   string `json:"sqlstate,omitempty"`
	Message    string `json:"message,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Constraint string `json:"constraint,omitempty"`
}

// Describe flattens an error into a Report for structured logging. Controllers
// never expose this to clients; it exists so a single log line shows the whole
// wrap chain and the SQLSTATE behind a constraint failure.
func Describe(err error) Report {
	if err == nil {
		return Report{}
	}

	report := Report{Message: err.Error()}
	if typed := As(err); typed != nil {
		report.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		report.Chain = append(report.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	report.Postgres = pgDetail(err)
	return report
}

func pgDetail(err error) *PGDetail {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGDetail{
			SQLState:   pgxErr.Code,
			Message:    pgxErr.Message,
			Detail:     pgxErr.Detail,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Constraint: pgxErr.ConstraintName,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGDetail{
			SQLState:   string(pqErr.Code),
			Message:    pqErr.Message,
			Detail:     pqErr.Detail,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Constraint: pqErr.Constraint,
		}
	}

	return nil
}
