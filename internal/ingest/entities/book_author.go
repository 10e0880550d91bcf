package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// BookAuthorRow is one decoded row of lib.libavtor.sql.
type BookAuthorRow struct {
	BookID   int64
	AuthorID int64
}

// BookAuthor links a book to one of its authors. Both remote ids are
// resolved against their parent tables; if either is absent the row is
// silently skipped.
type BookAuthor struct{}

func (BookAuthor) Name() string { return "lib.libavtor.sql" }

func (BookAuthor) Before(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION update_book_author(source_ smallint, book_ integer, author_ integer) RETURNS void AS $$
			DECLARE
				book_id integer;
				author_id integer;
			BEGIN
				SELECT id INTO book_id FROM books WHERE source = source_ AND remote_id = book_;
				SELECT id INTO author_id FROM authors WHERE source = source_ AND remote_id = author_;

				IF book_id IS NULL OR author_id IS NULL THEN
					RETURN;
				END IF;

				IF EXISTS (SELECT 1 FROM book_authors WHERE book = book_id AND author = author_id) THEN
					RETURN;
				END IF;

				INSERT INTO book_authors (book, author) VALUES (book_id, author_id);
			END;
		$$ LANGUAGE plpgsql;
	`)
	return dberr.Wrap(err, "book_author.before")
}

// BuildRow maps lib.libavtor.sql's columns: 0=book_id, 1=author_id.
func (BookAuthor) BuildRow(cells []Lit) (BookAuthorRow, error) {
	bookID, ok := cells[0].Integer()
	if !ok {
		return BookAuthorRow{}, apperr.MapperMismatch("BookAuthor", "book_id", cells[0])
	}
	authorID, ok := cells[1].Integer()
	if !ok {
		return BookAuthorRow{}, apperr.MapperMismatch("BookAuthor", "author_id", cells[1])
	}
	return BookAuthorRow{BookID: bookID, AuthorID: authorID}, nil
}

func (BookAuthor) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row BookAuthorRow) error {
	_, err := pool.Exec(ctx, "SELECT update_book_author($1, $2, $3);", sourceID, row.BookID, row.AuthorID)
	return dberr.Wrap(err, "book_author.apply")
}

func (BookAuthor) After(context.Context, *pgxpool.Pool) error { return nil }
