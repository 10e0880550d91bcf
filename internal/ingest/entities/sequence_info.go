package entities

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// SequenceInfoRow is one decoded row of lib.libseq.sql: a book's position
// within one of its sequences.
type SequenceInfoRow struct {
	BookID     int64
	SequenceID int64
	Position   int64
}

// SequenceInfo links a book to a sequence at a given position. Both remote
// ids must resolve or the row is skipped; position is stored as its
// absolute value and updates on conflict (SequenceInfo.position
// edge case — the literal may arrive as unary-minus(integer)).
type SequenceInfo struct{}

func (SequenceInfo) Name() string { return "lib.libseq.sql" }

func (SequenceInfo) Before(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION update_book_sequence(source_ smallint, book_ integer, sequence_ integer, position_ smallint) RETURNS void AS $$
			DECLARE
				book_id integer;
				sequence_id integer;
			BEGIN
				SELECT id INTO book_id FROM books WHERE source = source_ AND remote_id = book_;
				IF book_id IS NULL THEN
					RETURN;
				END IF;

				SELECT id INTO sequence_id FROM sequences WHERE source = source_ AND remote_id = sequence_;
				IF sequence_id IS NULL THEN
					RETURN;
				END IF;

				IF EXISTS (SELECT 1 FROM book_sequences WHERE book = book_id AND sequence = sequence_id) THEN
					UPDATE book_sequences SET position = ABS(position_) WHERE book = book_id AND sequence = sequence_id;
					RETURN;
				END IF;
				INSERT INTO book_sequences (book, sequence, position) VALUES (book_id, sequence_id, ABS(position_));
			END;
		$$ LANGUAGE plpgsql;
	`)
	return dberr.Wrap(err, "sequence_info.before")
}

// BuildRow maps lib.libseq.sql's columns: 0=book_id, 1=sequence_id,
// 2=position. Position accepts both a plain and a unary-minus(integer)
// literal.
func (SequenceInfo) BuildRow(cells []Lit) (SequenceInfoRow, error) {
	bookID, ok := cells[0].Integer()
	if !ok {
		return SequenceInfoRow{}, apperr.MapperMismatch("SequenceInfo", "book_id", cells[0])
	}
	sequenceID, ok := cells[1].Integer()
	if !ok {
		return SequenceInfoRow{}, apperr.MapperMismatch("SequenceInfo", "sequence_id", cells[1])
	}
	position, ok := cells[2].SignedInteger()
	if !ok {
		return SequenceInfoRow{}, apperr.MapperMismatch("SequenceInfo", "position", cells[2])
	}
	return SequenceInfoRow{BookID: bookID, SequenceID: sequenceID, Position: position}, nil
}

func (SequenceInfo) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row SequenceInfoRow) error {
	_, err := pool.Exec(ctx,
		"SELECT update_book_sequence($1, $2, $3, $4);",
		sourceID, row.BookID, row.SequenceID, row.Position,
	)
	return dberr.Wrap(err, "sequence_info.apply")
}

func (SequenceInfo) After(context.Context, *pgxpool.Pool) error { return nil }
