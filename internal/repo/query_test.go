package repo

import (
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/equipment-loans/internal/domain"
)

// These tests cover statement building and error mapping only; they do not
// need a database.

func TestBuildListByField(t *testing.T) {
	q, args, err := buildListByField("lab", domain.FieldBorrowerEmail, "ana@example.com")

	require.NoError(t, err)
	assert.Contains(t, q, `FROM "loans"`)
	assert.Contains(t, q, `"borrower_email" = $`)
	assert.Contains(t, q, `"ledger" = $`)
	assert.Contains(t, q, `ORDER BY "id" ASC`)
	assert.NotContains(t, q, "ana@example.com", "values must travel as arguments")
	assert.ElementsMatch(t, []any{"lab", "ana@example.com"}, args)
}

func TestBuildListByField_DateValueNormalized(t *testing.T) {
	_, args, err := buildListByField("lab", domain.FieldDueOn, time.Date(2025, 3, 10, 15, 4, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Contains(t, args, "2025-03-10")
}

func TestBuildListByField_UnknownField(t *testing.T) {
	_, _, err := buildListByField("lab", domain.LoanField("id; DROP TABLE loans"), "x")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildUpdateFields(t *testing.T) {
	q, args, err := buildUpdateFields("lab", 42, map[domain.LoanField]any{
		domain.FieldDueOn:  "2025-04-01",
		domain.FieldStatus: "+3",
	})

	require.NoError(t, err)
	assert.Contains(t, q, `UPDATE "loans" SET`)
	assert.Contains(t, q, `"due_on"=$`)
	assert.Contains(t, q, `"status"=$`)
	assert.Contains(t, q, `"updated_at"=now()`)
	assert.Contains(t, q, `RETURNING "id", "ledger"`)
	assert.ElementsMatch(t, []any{"2025-04-01", "+3", "lab", int64(42)}, args)
}

func TestBuildUpdateFields_Rejects(t *testing.T) {
	cases := map[string]map[domain.LoanField]any{
		"empty":         {},
		"unknown field": {domain.LoanField("id"): "7"},
		"bad date":      {domain.FieldBorrowedOn: "03/10/25"},
		"wrong type":    {domain.FieldStatus: 3},
		"date type":     {domain.FieldDueOn: 20250310},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := buildUpdateFields("lab", 1, fields)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(pgx.ErrNoRows), domain.ErrNotFound)
	assert.ErrorIs(t, classify(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)), domain.ErrNotFound)

	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	assert.ErrorIs(t, classify(dialErr), domain.ErrStoreUnavailable)

	other := errors.New("duplicate key")
	assert.Equal(t, other, classify(other))
}
