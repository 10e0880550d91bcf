package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// AuthorAnnotationPicRow is one decoded row of lib.a.annotations_pics.sql.
type AuthorAnnotationPicRow struct {
	AuthorID int64
	File     string
}

// AuthorAnnotationPic attaches a portrait image file name to an existing
// author annotation. No stored procedure, same reasoning as
// [BookAnnotationPic].
type AuthorAnnotationPic struct{}

func (AuthorAnnotationPic) Name() string { return "lib.a.annotations_pics.sql" }

func (AuthorAnnotationPic) Before(context.Context, *pgxpool.Pool) error { return nil }

// BuildRow maps lib.a.annotations_pics.sql's columns: 0=author_id, 2=file.
func (AuthorAnnotationPic) BuildRow(cells []Lit) (AuthorAnnotationPicRow, error) {
	authorID, ok := cells[0].Integer()
	if !ok {
		return AuthorAnnotationPicRow{}, apperr.MapperMismatch("AuthorAnnotationPic", "author_id", cells[0])
	}
	file, ok := cells[2].Text()
	if !ok {
		return AuthorAnnotationPicRow{}, apperr.MapperMismatch("AuthorAnnotationPic", "file", cells[2])
	}
	return AuthorAnnotationPicRow{AuthorID: authorID, File: file}, nil
}

func (AuthorAnnotationPic) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row AuthorAnnotationPicRow) error {
	_, err := pool.Exec(ctx, `
		UPDATE author_annotations
		SET file = cast($3 as varchar)
		FROM (SELECT id FROM authors WHERE source = $1 AND remote_id = $2) AS matched_author
		WHERE author = matched_author.id;
	`, sourceID, row.AuthorID, row.File)
	return dberr.Wrap(err, "author_annotation_pic.apply")
}

func (AuthorAnnotationPic) After(context.Context, *pgxpool.Pool) error { return nil }
