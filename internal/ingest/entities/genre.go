package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// GenreRow is one decoded row of lib.libgenrelist.sql.
type GenreRow struct {
	RemoteID    int64
	Code        string
	Description string
	Meta        string
}

// Genre upserts the genre catalog keyed by (source, remote_id).
//
// Earlier revisions of this upsert installed a procedure misnamed
// update_book_sequence whose body was actually a copy of the book_genre
// link logic — never a genres upsert at all — while the caller invoked a
// update_genre function that didn't exist. update_genre here is named and
// bodied correctly: it upserts the genres row.
type Genre struct{}

func (Genre) Name() string { return "lib.libgenrelist.sql" }

func (Genre) Before(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION update_genre(
			source_ smallint, remote_id_ int, code_ varchar, description_ varchar, meta_ varchar
		) RETURNS void AS $$
			BEGIN
				IF EXISTS (SELECT 1 FROM genres WHERE source = source_ AND remote_id = remote_id_) THEN
					UPDATE genres SET code = code_, description = description_, meta = meta_
					WHERE source = source_ AND remote_id = remote_id_;
					RETURN;
				END IF;
				INSERT INTO genres (source, remote_id, code, description, meta)
					VALUES (source_, remote_id_, code_, description_, meta_);
			END;
		$$ LANGUAGE plpgsql;
	`)
	return dberr.Wrap(err, "genre.before")
}

// BuildRow maps lib.libgenrelist.sql's columns: 0=remote_id, 1=code,
// 2=description, 3=meta.
func (Genre) BuildRow(cells []Lit) (GenreRow, error) {
	id, ok := cells[0].Integer()
	if !ok {
		return GenreRow{}, apperr.MapperMismatch("Genre", "remote_id", cells[0])
	}
	code, ok := cells[1].Text()
	if !ok {
		return GenreRow{}, apperr.MapperMismatch("Genre", "code", cells[1])
	}
	description, ok := cells[2].Text()
	if !ok {
		return GenreRow{}, apperr.MapperMismatch("Genre", "description", cells[2])
	}
	meta, ok := cells[3].Text()
	if !ok {
		return GenreRow{}, apperr.MapperMismatch("Genre", "meta", cells[3])
	}
	return GenreRow{RemoteID: id, Code: code, Description: description, Meta: meta}, nil
}

func (Genre) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row GenreRow) error {
	_, err := pool.Exec(ctx,
		"SELECT update_genre($1, $2, cast($3 as varchar), cast($4 as varchar), cast($5 as varchar));",
		sourceID, row.RemoteID, row.Code, row.Description, row.Meta,
	)
	return dberr.Wrap(err, "genre.apply")
}

func (Genre) After(context.Context, *pgxpool.Pool) error { return nil }
