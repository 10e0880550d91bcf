package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// TranslatorRow is one decoded row of lib.libtranslator.sql.
type TranslatorRow struct {
	BookID   int64
	AuthorID int64
	Position int64
}

// Translator links a translator author to a book, in position order. Both
// remote ids must resolve or the row is skipped; position updates on
// conflict.
type Translator struct{}

func (Translator) Name() string { return "lib.libtranslator.sql" }

func (Translator) Before(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION update_translation(source_ smallint, book_ integer, author_ integer, position_ smallint) RETURNS void AS $$
			DECLARE
				book_id integer;
				author_id integer;
			BEGIN
				SELECT id INTO book_id FROM books WHERE source = source_ AND remote_id = book_;
				SELECT id INTO author_id FROM authors WHERE source = source_ AND remote_id = author_;

				IF book_id IS NULL OR author_id IS NULL THEN
					RETURN;
				END IF;

				IF EXISTS (SELECT 1 FROM translations WHERE book = book_id AND author = author_id) THEN
					UPDATE translations SET position = position_
					WHERE book = book_id AND author = author_id;
					RETURN;
				END IF;
				INSERT INTO translations (book, author, position) VALUES (book_id, author_id, position_);
			END;
		$$ LANGUAGE plpgsql;
	`)
	return dberr.Wrap(err, "translator.before")
}

// BuildRow maps lib.libtranslator.sql's columns: 0=book_id, 1=author_id,
// 2=position.
func (Translator) BuildRow(cells []Lit) (TranslatorRow, error) {
	bookID, ok := cells[0].Integer()
	if !ok {
		return TranslatorRow{}, apperr.MapperMismatch("Translator", "book_id", cells[0])
	}
	authorID, ok := cells[1].Integer()
	if !ok {
		return TranslatorRow{}, apperr.MapperMismatch("Translator", "author_id", cells[1])
	}
	position, ok := cells[2].Integer()
	if !ok {
		return TranslatorRow{}, apperr.MapperMismatch("Translator", "position", cells[2])
	}
	return TranslatorRow{BookID: bookID, AuthorID: authorID, Position: position}, nil
}

func (Translator) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row TranslatorRow) error {
	_, err := pool.Exec(ctx,
		"SELECT update_translation($1, $2, $3, $4);",
		sourceID, row.BookID, row.AuthorID, row.Position,
	)
	return dberr.Wrap(err, "translator.apply")
}

func (Translator) After(context.Context, *pgxpool.Pool) error { return nil }
