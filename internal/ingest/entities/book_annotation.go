package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/ingest/sanitize"
	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// BookAnnotationRow is one decoded row of lib.b.annotations.sql.
type BookAnnotationRow struct {
	BookID int64
	Title  string
	Body   *string
}

// BookAnnotation upserts a book's single annotation, keyed on the resolved
// book alone — one annotation per parent.
type BookAnnotation struct{}

func (BookAnnotation) Name() string { return "lib.b.annotations.sql" }

func (BookAnnotation) Before(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION update_book_annotation(source_ smallint, book_ integer, title_ varchar, text_ text) RETURNS void AS $$
			DECLARE
				book_id integer;
			BEGIN
				SELECT id INTO book_id FROM books WHERE source = source_ AND remote_id = book_;
				IF book_id IS NULL THEN
					RETURN;
				END IF;

				IF EXISTS (SELECT 1 FROM book_annotations WHERE book = book_id) THEN
					UPDATE book_annotations SET title = title_, text = text_ WHERE book = book_id;
					RETURN;
				END IF;

				INSERT INTO book_annotations (book, title, text) VALUES (book_id, title_, text_);
			END;
		$$ LANGUAGE plpgsql;
	`)
	return dberr.Wrap(err, "book_annotation.before")
}

// BuildRow maps lib.b.annotations.sql's columns: 0=book_id, 2=title,
// 3=body (nullable; HTML-sanitized when present).
func (BookAnnotation) BuildRow(cells []Lit) (BookAnnotationRow, error) {
	bookID, ok := cells[0].Integer()
	if !ok {
		return BookAnnotationRow{}, apperr.MapperMismatch("BookAnnotation", "book_id", cells[0])
	}
	title, ok := cells[2].Text()
	if !ok {
		return BookAnnotationRow{}, apperr.MapperMismatch("BookAnnotation", "title", cells[2])
	}

	var body *string
	if !cells[3].IsNull() {
		raw, ok := cells[3].Text()
		if !ok {
			return BookAnnotationRow{}, apperr.MapperMismatch("BookAnnotation", "body", cells[3])
		}
		fixed := sanitize.FixAnnotationText(raw)
		body = &fixed
	}

	return BookAnnotationRow{BookID: bookID, Title: title, Body: body}, nil
}

func (BookAnnotation) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row BookAnnotationRow) error {
	_, err := pool.Exec(ctx,
		"SELECT update_book_annotation($1, $2, cast($3 as varchar), cast($4 as text));",
		sourceID, row.BookID, row.Title, row.Body,
	)
	return dberr.Wrap(err, "book_annotation.apply")
}

func (BookAnnotation) After(context.Context, *pgxpool.Pool) error { return nil }
