package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// BookAnnotationPicRow is one decoded row of lib.b.annotations_pics.sql.
type BookAnnotationPicRow struct {
	BookID int64
	File   string
}

// BookAnnotationPic attaches a cover image file name to an existing book
// annotation. No stored procedure: unlike the nine entities that install
// one, this one only ever updates a column on a row another task already
// owns, so a plain parameterized UPDATE is enough.
type BookAnnotationPic struct{}

func (BookAnnotationPic) Name() string { return "lib.b.annotations_pics.sql" }

func (BookAnnotationPic) Before(context.Context, *pgxpool.Pool) error { return nil }

// BuildRow maps lib.b.annotations_pics.sql's columns: 0=book_id, 2=file.
func (BookAnnotationPic) BuildRow(cells []Lit) (BookAnnotationPicRow, error) {
	bookID, ok := cells[0].Integer()
	if !ok {
		return BookAnnotationPicRow{}, apperr.MapperMismatch("BookAnnotationPic", "book_id", cells[0])
	}
	file, ok := cells[2].Text()
	if !ok {
		return BookAnnotationPicRow{}, apperr.MapperMismatch("BookAnnotationPic", "file", cells[2])
	}
	return BookAnnotationPicRow{BookID: bookID, File: file}, nil
}

func (BookAnnotationPic) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row BookAnnotationPicRow) error {
	_, err := pool.Exec(ctx, `
		UPDATE book_annotations
		SET file = cast($3 as varchar)
		FROM (SELECT id FROM books WHERE source = $1 AND remote_id = $2) AS matched_book
		WHERE book = matched_book.id;
	`, sourceID, row.BookID, row.File)
	return dberr.Wrap(err, "book_annotation_pic.apply")
}

func (BookAnnotationPic) After(context.Context, *pgxpool.Pool) error { return nil }
