// Package entities implements the twelve dump row mappers and upserters,
// one file per entity.
package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/ingest/literal"
	"github.com/flibusta-go/libupdater/internal/ingest/sanitize"
	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// Lit is the cell type every entity's BuildRow decodes, aliasing
// [literal.Literal] — identical to ingest.Literal so the generic
// ingest.Task[Row] machinery and these entity files agree on one type.
type Lit = literal.Literal

// AuthorRow is one decoded row of lib.libavtorname.sql.
type AuthorRow struct {
	RemoteID   int64
	FirstName  string
	MiddleName string
	LastName   string
}

// Author upserts authors keyed by (source, remote_id).
type Author struct{}

func (Author) Name() string { return "lib.libavtorname.sql" }

func (Author) Before(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION update_author(
			source_ smallint, remote_id_ int, first_name_ varchar, last_name_ varchar, middle_name_ varchar
		) RETURNS void AS $$
			BEGIN
				IF EXISTS (SELECT 1 FROM authors WHERE source = source_ AND remote_id = remote_id_) THEN
					UPDATE authors SET first_name = first_name_, last_name = last_name_, middle_name = middle_name_
					WHERE source = source_ AND remote_id = remote_id_;
					RETURN;
				END IF;
				INSERT INTO authors (source, remote_id, first_name, last_name, middle_name)
					VALUES (source_, remote_id_, first_name_, last_name_, middle_name_);
			END;
		$$ LANGUAGE plpgsql;
	`)
	return dberr.Wrap(err, "author.before")
}

// buildAuthorRow maps lib.libavtorname.sql's columns: 0=remote_id, 1=first_name,
// 2=middle_name, 3=last_name.
func buildAuthorRow(cells []Lit) (AuthorRow, error) {
	id, ok := cells[0].Integer()
	if !ok {
		return AuthorRow{}, apperr.MapperMismatch("Author", "remote_id", cells[0])
	}
	first, ok := cells[1].Text()
	if !ok {
		return AuthorRow{}, apperr.MapperMismatch("Author", "first_name", cells[1])
	}
	middle, ok := cells[2].Text()
	if !ok {
		return AuthorRow{}, apperr.MapperMismatch("Author", "middle_name", cells[2])
	}
	last, ok := cells[3].Text()
	if !ok {
		return AuthorRow{}, apperr.MapperMismatch("Author", "last_name", cells[3])
	}

	return AuthorRow{
		RemoteID:   id,
		FirstName:  sanitize.RemoveWrongChars(first),
		MiddleName: sanitize.RemoveWrongChars(middle),
		LastName:   sanitize.RemoveWrongChars(last),
	}, nil
}

func (Author) BuildRow(cells []Lit) (AuthorRow, error) {
	return buildAuthorRow(cells)
}

func (Author) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row AuthorRow) error {
	_, err := pool.Exec(ctx,
		"SELECT update_author($1, $2, cast($3 as varchar), cast($4 as varchar), cast($5 as varchar));",
		sourceID, row.RemoteID, row.FirstName, row.LastName, row.MiddleName,
	)
	return dberr.Wrap(err, "author.apply")
}

func (Author) After(context.Context, *pgxpool.Pool) error { return nil }
