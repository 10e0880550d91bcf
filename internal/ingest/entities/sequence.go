package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/ingest/sanitize"
	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// SequenceRow is one decoded row of lib.libseqname.sql.
type SequenceRow struct {
	RemoteID int64
	Name     string
}

// Sequence upserts book series ("sequences") keyed by (source, remote_id).
type Sequence struct{}

func (Sequence) Name() string { return "lib.libseqname.sql" }

func (Sequence) Before(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION update_sequences(source_ smallint, remote_id_ int, name_ varchar) RETURNS void AS $$
			BEGIN
				IF EXISTS (SELECT 1 FROM sequences WHERE source = source_ AND remote_id = remote_id_) THEN
					UPDATE sequences SET name = name_ WHERE source = source_ AND remote_id = remote_id_;
					RETURN;
				END IF;
				INSERT INTO sequences (source, remote_id, name) VALUES (source_, remote_id_, name_);
			END;
		$$ LANGUAGE plpgsql;
	`)
	return dberr.Wrap(err, "sequence.before")
}

// BuildRow maps lib.libseqname.sql's columns: 0=remote_id, 1=name.
func (Sequence) BuildRow(cells []Lit) (SequenceRow, error) {
	id, ok := cells[0].Integer()
	if !ok {
		return SequenceRow{}, apperr.MapperMismatch("Sequence", "remote_id", cells[0])
	}
	name, ok := cells[1].Text()
	if !ok {
		return SequenceRow{}, apperr.MapperMismatch("Sequence", "name", cells[1])
	}
	return SequenceRow{RemoteID: id, Name: sanitize.RemoveWrongChars(name)}, nil
}

func (Sequence) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row SequenceRow) error {
	_, err := pool.Exec(ctx,
		"SELECT update_sequences($1, $2, cast($3 as varchar));",
		sourceID, row.RemoteID, row.Name,
	)
	return dberr.Wrap(err, "sequence.apply")
}

func (Sequence) After(context.Context, *pgxpool.Pool) error { return nil }
