package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/ingest/sanitize"
	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// AuthorAnnotationRow is one decoded row of lib.a.annotations.sql.
type AuthorAnnotationRow struct {
	AuthorID int64
	Title    string
	Body     *string
}

// AuthorAnnotation upserts an author's single annotation, keyed on the
// resolved author alone — one annotation per parent.
type AuthorAnnotation struct{}

func (AuthorAnnotation) Name() string { return "lib.a.annotations.sql" }

func (AuthorAnnotation) Before(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION update_author_annotation(source_ smallint, author_ integer, title_ varchar, text_ text) RETURNS void AS $$
			DECLARE
				author_id integer;
			BEGIN
				SELECT id INTO author_id FROM authors WHERE source = source_ AND remote_id = author_;
				IF author_id IS NULL THEN
					RETURN;
				END IF;

				IF EXISTS (SELECT 1 FROM author_annotations WHERE author = author_id) THEN
					UPDATE author_annotations SET title = title_, text = text_ WHERE author = author_id;
					RETURN;
				END IF;
				INSERT INTO author_annotations (author, title, text) VALUES (author_id, title_, text_);
			END;
		$$ LANGUAGE plpgsql;
	`)
	return dberr.Wrap(err, "author_annotation.before")
}

// BuildRow maps lib.a.annotations.sql's columns: 0=author_id, 2=title,
// 3=body (nullable; HTML-sanitized when present).
func (AuthorAnnotation) BuildRow(cells []Lit) (AuthorAnnotationRow, error) {
	authorID, ok := cells[0].Integer()
	if !ok {
		return AuthorAnnotationRow{}, apperr.MapperMismatch("AuthorAnnotation", "author_id", cells[0])
	}
	title, ok := cells[2].Text()
	if !ok {
		return AuthorAnnotationRow{}, apperr.MapperMismatch("AuthorAnnotation", "title", cells[2])
	}

	var body *string
	if !cells[3].IsNull() {
		raw, ok := cells[3].Text()
		if !ok {
			return AuthorAnnotationRow{}, apperr.MapperMismatch("AuthorAnnotation", "body", cells[3])
		}
		fixed := sanitize.FixAnnotationText(raw)
		body = &fixed
	}

	return AuthorAnnotationRow{AuthorID: authorID, Title: title, Body: body}, nil
}

func (AuthorAnnotation) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row AuthorAnnotationRow) error {
	_, err := pool.Exec(ctx,
		"SELECT update_author_annotation($1, $2, cast($3 as varchar), cast($4 as text));",
		sourceID, row.AuthorID, row.Title, row.Body,
	)
	return dberr.Wrap(err, "author_annotation.apply")
}

func (AuthorAnnotation) After(context.Context, *pgxpool.Pool) error { return nil }
