package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyrkio/qry/internal/driver/sqlite"
	"github.com/nyrkio/qry/internal/evaluator"
	"github.com/nyrkio/qry/internal/typesystem"
)

func openMemory(t *testing.T) *sqlite.Driver {
	t.Helper()
	d, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestGetRelationMetadataAffinityMapping(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()
	require.NoError(t, d.Execute(ctx, "CREATE TABLE t(name varchar, age int, score real, active bool)"))

	meta, err := d.GetRelationMetadata(ctx, "t")
	require.NoError(t, err)
	require.Len(t, meta.Columns, 4)

	byName := make(map[string]typesystem.Type)
	for _, c := range meta.Columns {
		byName[c.Name] = c.Type
	}
	assert.True(t, byName["name"].Equal(typesystem.String))
	assert.True(t, byName["age"].Equal(typesystem.Int))
	assert.True(t, byName["score"].Equal(typesystem.Float))
	assert.True(t, byName["active"].Equal(typesystem.Bool))
}

func TestExecuteAndCollect(t *testing.T) {
	d := openMemory(t)
	ctx := context.Background()
	require.NoError(t, d.Execute(ctx, "CREATE TABLE t(name varchar, age int)"))
	require.NoError(t, d.Execute(ctx, "INSERT INTO t VALUES ('ruan', 26), ('ancient one', NULL)"))

	meta, err := d.GetRelationMetadata(ctx, "t")
	require.NoError(t, err)

	df, err := d.Collect(ctx, "SELECT * FROM t", meta)
	require.NoError(t, err)
	assert.Equal(t, 2, df.NumRows())
	assert.Equal(t, 2, df.NumCols())
	assert.Equal(t, "ruan", df.Rows[0][0].(evaluator.String).Value)
	assert.Equal(t, int64(26), df.Rows[0][1].(evaluator.Int).Value)
	assert.Equal(t, evaluator.Null{}, df.Rows[1][1])
}
