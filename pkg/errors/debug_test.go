package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeNil(t *testing.T) {
	report := Describe(nil)
	assert.Empty(t, report.Message)
	assert.Nil(t, report.Postgres)
}

func TestDescribeCodedChain(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(CodeDependency, cause, "pinging redis")

	report := Describe(err)
	assert.Equal(t, CodeDependency, report.Code)
	assert.Equal(t, err.Error(), report.Message)
	require.Len(t, report.Chain, 2)
	assert.Nil(t, report.Postgres)
}

func TestDescribeExtractsPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		Detail:         "Key (username)=(apotheker) already exists.",
		TableName:      "users",
		ConstraintName: "users_username_key",
	}
	err := Wrap(CodeConflict, fmt.Errorf("create user: %w", pgErr), "username taken")

	report := Describe(err)
	require.NotNil(t, report.Postgres)
	assert.Equal(t, "23505", report.Postgres.SQLState)
	assert.Equal(t, "users", report.Postgres.Table)
	assert.Equal(t, "users_username_key", report.Postgres.Constraint)
}
