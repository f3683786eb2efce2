package dbcontract

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SchemaExists issues one query per table via pgxpool, so its SQL shape is
// exercised here against go-sqlmock rather than a live container — the
// contract checker has no business standing up Postgres for a unit test.
func TestSchemaExistsQueryShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("patients").WillReturnRows(rows)

	var exists bool
	row := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, "patients")
	require.NoError(t, row.Scan(&exists))
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
