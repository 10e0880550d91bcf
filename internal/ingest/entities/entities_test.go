package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flibusta-go/libupdater/internal/ingest/entities"
	"github.com/flibusta-go/libupdater/internal/ingest/literal"
	"github.com/flibusta-go/libupdater/internal/platform/apperr"
)

func intLit(n int64) literal.Literal  { return literal.Literal{Kind: literal.KindInteger, Int: n} }
func negLit(n int64) literal.Literal  { return literal.Literal{Kind: literal.KindNegatedInteger, Int: n} }
func strLit(s string) literal.Literal { return literal.Literal{Kind: literal.KindString, Str: s} }
func nullLit() literal.Literal        { return literal.Literal{Kind: literal.KindNull} }

func TestAuthor_BuildRow(t *testing.T) {
	row, err := entities.Author{}.BuildRow([]literal.Literal{
		intLit(7), strLit("Fyodor"), strLit(""), strLit(`Достоевский\'s`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), row.RemoteID)
	assert.Equal(t, "Fyodor", row.FirstName)
	assert.Equal(t, "Достоевский's", row.LastName)
}

func TestAuthor_BuildRow_MapperMismatch(t *testing.T) {
	_, err := entities.Author{}.BuildRow([]literal.Literal{
		strLit("not-an-id"), strLit("a"), strLit("b"), strLit("c"),
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeMapperMismatch))
}

func TestBook_BuildRow(t *testing.T) {
	cells := make([]literal.Literal, 21)
	for i := range cells {
		cells[i] = nullLit()
	}
	cells[0] = intLit(100)
	cells[2] = strLit("2020-05-01 00:00:00")
	cells[3] = strLit("War and Peace")
	cells[5] = strLit("RU-~RU")
	cells[8] = strLit("fb2")
	cells[10] = intLit(1869)
	cells[11] = strLit("0")
	cells[20] = intLit(1225)

	row, err := entities.Book{}.BuildRow(cells)
	require.NoError(t, err)
	assert.Equal(t, int64(100), row.RemoteID)
	assert.Equal(t, "War and Peace", row.Title)
	assert.Equal(t, "ruru", row.Lang)
	assert.False(t, row.IsDeleted)
	assert.Equal(t, int64(1225), row.Pages)
	assert.Equal(t, 2020, row.Uploaded.Year())
}

func TestBook_BuildRow_BadDate(t *testing.T) {
	cells := make([]literal.Literal, 21)
	for i := range cells {
		cells[i] = nullLit()
	}
	cells[0] = intLit(1)
	cells[2] = strLit("not-a-date")
	cells[3] = strLit("x")
	cells[5] = strLit("ru")
	cells[8] = strLit("fb2")
	cells[10] = intLit(2000)
	cells[11] = strLit("0")
	cells[20] = intLit(1)

	_, err := entities.Book{}.BuildRow(cells)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeMapperMismatch))
}

func TestSequenceInfo_BuildRow_AcceptsNegatedPosition(t *testing.T) {
	row, err := entities.SequenceInfo{}.BuildRow([]literal.Literal{
		intLit(1), intLit(2), negLit(5),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-5), row.Position)
}

func TestBookAnnotation_BuildRow_NullBody(t *testing.T) {
	row, err := entities.BookAnnotation{}.BuildRow([]literal.Literal{
		intLit(1), nullLit(), strLit("Title"), nullLit(),
	})
	require.NoError(t, err)
	assert.Nil(t, row.Body)
}

func TestBookAnnotation_BuildRow_BodyIsSanitized(t *testing.T) {
	row, err := entities.BookAnnotation{}.BuildRow([]literal.Literal{
		intLit(1), nullLit(), strLit("Title"), strLit("line one<br>line two"),
	})
	require.NoError(t, err)
	require.NotNil(t, row.Body)
	assert.Equal(t, "line one\nline two", *row.Body)
}

func TestBookGenre_BuildRow_SkipsSurrogateColumn(t *testing.T) {
	row, err := entities.BookGenre{}.BuildRow([]literal.Literal{
		intLit(999), intLit(10), intLit(20),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), row.BookID)
	assert.Equal(t, int64(20), row.GenreID)
}

func TestGenre_BuildRow(t *testing.T) {
	row, err := entities.Genre{}.BuildRow([]literal.Literal{
		intLit(4), strLit("sf"), strLit("Science Fiction"), strLit("sf_meta"),
	})
	require.NoError(t, err)
	assert.Equal(t, "sf", row.Code)
	assert.Equal(t, "Science Fiction", row.Description)
}
