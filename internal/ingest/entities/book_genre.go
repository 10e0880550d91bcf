package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// BookGenreRow is one decoded row of lib.libgenre.sql.
type BookGenreRow struct {
	BookID  int64
	GenreID int64
}

// BookGenre links a book to one of its genres.
//
// An earlier revision of this upsert called into update_book_sequence —
// the SequenceInfo entity's stored procedure, which expects four arguments
// (source, book, sequence, position) where a book/genre link only ever has
// three (source, book, genre). There is no dedicated stored procedure for this link, so
// it resolves both foreign keys with a direct parameterized statement
// instead of reusing (or inventing) one.
type BookGenre struct{}

func (BookGenre) Name() string { return "lib.libgenre.sql" }

func (BookGenre) Before(context.Context, *pgxpool.Pool) error { return nil }

// BuildRow maps lib.libgenre.sql's columns: 1=book_id, 2=genre_id (column 0
// is the link's own surrogate id in the dump and is not needed here).
func (BookGenre) BuildRow(cells []Lit) (BookGenreRow, error) {
	bookID, ok := cells[1].Integer()
	if !ok {
		return BookGenreRow{}, apperr.MapperMismatch("BookGenre", "book_id", cells[1])
	}
	genreID, ok := cells[2].Integer()
	if !ok {
		return BookGenreRow{}, apperr.MapperMismatch("BookGenre", "genre_id", cells[2])
	}
	return BookGenreRow{BookID: bookID, GenreID: genreID}, nil
}

// Apply resolves both remote ids against their parent tables and inserts
// the link if both resolve and it does not already exist — silently
// skipping otherwise (relation-entity defensive skip).
func (BookGenre) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row BookGenreRow) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO book_genres (book, genre)
		SELECT b.id, g.id
		FROM (SELECT id FROM books WHERE source = $1 AND remote_id = $2) AS b,
			 (SELECT id FROM genres WHERE source = $1 AND remote_id = $3) AS g
		WHERE NOT EXISTS (
			SELECT 1 FROM book_genres WHERE book = b.id AND genre = g.id
		);
	`, sourceID, row.BookID, row.GenreID)
	return dberr.Wrap(err, "book_genre.apply")
}

func (BookGenre) After(context.Context, *pgxpool.Pool) error { return nil }
