package main

import (
	"context"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrationsFromScratch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migration").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM schema_migration")).
		WillReturnRows(mock.NewRows([]string{"coalesce"}).AddRow(0))

	statementCounts := map[int]int{
		1: 7,  // one CREATE TABLE per entity table
		2: 11, // indexes
	}
	for _, m := range migrationsList {
		mock.ExpectBegin()
		for i := 0; i < statementCounts[m.version]; i++ {
			mock.ExpectExec("CREATE (TABLE|INDEX) IF NOT EXISTS .+").
				WillReturnResult(pgxmock.NewResult("CREATE", 0))
		}
		mock.ExpectExec("INSERT INTO schema_migration").
			WithArgs(m.version, m.name).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()
		// The deferred rollback after a successful commit is a no-op.
		mock.ExpectRollback()
	}

	require.NoError(t, applyMigrations(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrationsSkipsAppliedVersions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migration").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM schema_migration")).
		WillReturnRows(mock.NewRows([]string{"coalesce"}).AddRow(len(migrationsList)))

	// Schema already at the latest version: no transaction expected.
	require.NoError(t, applyMigrations(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationVersionsAreOrdered(t *testing.T) {
	for i, m := range migrationsList {
		assert.Equal(t, i+1, m.version, m.name)
	}
}
