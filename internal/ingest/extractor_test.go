package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRows_SingleRow(t *testing.T) {
	line := `INSERT INTO libavtorname VALUES (1,'John','','Smith');`
	rows, ok, malformed := ExtractRows(line)
	require.True(t, ok)
	assert.False(t, malformed)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Len(t, row, 4)

	id, ok := row[0].Integer()
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	name, ok := row[1].Text()
	assert.True(t, ok)
	assert.Equal(t, "John", name)
}

func TestExtractRows_MultipleTuples(t *testing.T) {
	line := `INSERT INTO t VALUES (1,'a'),(2,'b');`
	rows, ok, malformed := ExtractRows(line)
	require.True(t, ok)
	assert.False(t, malformed)
	require.Len(t, rows, 2)
}

func TestExtractRows_NegatedInteger(t *testing.T) {
	line := `INSERT INTO libseq VALUES (10,20,-3);`
	rows, ok, malformed := ExtractRows(line)
	require.True(t, ok)
	assert.False(t, malformed)
	require.Len(t, rows, 1)

	position, ok := rows[0][2].SignedInteger()
	require.True(t, ok)
	assert.Equal(t, int64(-3), position)
}

func TestExtractRows_NullLiteral(t *testing.T) {
	line := `INSERT INTO t VALUES (1,NULL);`
	rows, ok, malformed := ExtractRows(line)
	require.True(t, ok)
	assert.False(t, malformed)
	assert.True(t, rows[0][1].IsNull())
}

func TestExtractRows_NonInsertStatement(t *testing.T) {
	_, ok, malformed := ExtractRows(`CREATE TABLE t (id int);`)
	assert.False(t, ok)
	assert.False(t, malformed)
}

func TestExtractRows_BlankLine(t *testing.T) {
	_, ok, malformed := ExtractRows(``)
	assert.False(t, ok)
	assert.False(t, malformed)
}

func TestExtractRows_UnparseableRowIsNotFatal(t *testing.T) {
	// A function call expression inside VALUES is a shape this pipeline
	// never needs to understand; it must be reported as malformed, not
	// crash the caller.
	_, ok, malformed := ExtractRows(`INSERT INTO t VALUES (NOW());`)
	assert.False(t, ok)
	assert.True(t, malformed)
}
