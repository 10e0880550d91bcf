package entities

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibusta-go/libupdater/internal/ingest/sanitize"
	"github.com/flibusta-go/libupdater/internal/platform/apperr"
	"github.com/flibusta-go/libupdater/internal/platform/constants"
	"github.com/flibusta-go/libupdater/internal/platform/dberr"
)

// dumpDateLayout is the "YYYY-MM-DD HH:MM:SS" shape lib.libbook.sql's
// Uploaded column arrives in; only the date part is kept.
const dumpDateLayout = constants.DumpDateLayout

// BookRow is one decoded row of lib.libbook.sql.
type BookRow struct {
	RemoteID  int64
	Title     string
	Lang      string
	FileType  string
	Uploaded  time.Time
	IsDeleted bool
	Pages     int64
	Year      int64
}

// Book upserts books keyed by (source, remote_id), then post-passes to
// flip is_deleted for every language outside [constants.AllowedLanguages].
type Book struct{}

func (Book) Name() string { return "lib.libbook.sql" }

func (Book) Before(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION update_book(
			source_ smallint, remote_id_ int, title_ varchar, lang_ varchar,
			file_type_ varchar, uploaded_ date, is_deleted_ boolean, pages_ int,
			year_ smallint
		) RETURNS void AS $$
			BEGIN
				IF EXISTS (SELECT 1 FROM books WHERE source = source_ AND remote_id = remote_id_) THEN
					UPDATE books SET title = title_, lang = lang_, file_type = file_type_,
									 uploaded = uploaded_, is_deleted = is_deleted_, pages = pages_,
									 year = year_
					WHERE source = source_ AND remote_id = remote_id_;
					RETURN;
				END IF;
				INSERT INTO books (source, remote_id, title, lang, file_type, uploaded, is_deleted, pages, year)
					VALUES (source_, remote_id_, title_, lang_, file_type_, uploaded_, is_deleted_, pages_, year_);
			END;
		$$ LANGUAGE plpgsql;
	`)
	return dberr.Wrap(err, "book.before")
}

// BuildRow maps lib.libbook.sql's columns: 0=remote_id, 2=uploaded,
// 3=title, 5=lang, 8=file_type, 10=year, 11=is_deleted, 20=pages.
func (Book) BuildRow(cells []Lit) (BookRow, error) {
	id, ok := cells[0].Integer()
	if !ok {
		return BookRow{}, apperr.MapperMismatch("Book", "remote_id", cells[0])
	}
	uploadedStr, ok := cells[2].Text()
	if !ok {
		return BookRow{}, apperr.MapperMismatch("Book", "uploaded", cells[2])
	}
	uploaded, err := time.Parse(dumpDateLayout, uploadedStr)
	if err != nil {
		return BookRow{}, apperr.MapperMismatch("Book", "uploaded", uploadedStr)
	}
	title, ok := cells[3].Text()
	if !ok {
		return BookRow{}, apperr.MapperMismatch("Book", "title", cells[3])
	}
	lang, ok := cells[5].Text()
	if !ok {
		return BookRow{}, apperr.MapperMismatch("Book", "lang", cells[5])
	}
	fileType, ok := cells[8].Text()
	if !ok {
		return BookRow{}, apperr.MapperMismatch("Book", "file_type", cells[8])
	}
	year, ok := cells[10].Integer()
	if !ok {
		return BookRow{}, apperr.MapperMismatch("Book", "year", cells[10])
	}
	deletedStr, ok := cells[11].Text()
	if !ok {
		return BookRow{}, apperr.MapperMismatch("Book", "is_deleted", cells[11])
	}
	pages, ok := cells[20].Integer()
	if !ok {
		return BookRow{}, apperr.MapperMismatch("Book", "pages", cells[20])
	}

	return BookRow{
		RemoteID:  id,
		Title:     sanitize.RemoveWrongChars(title),
		Lang:      sanitize.ParseLang(lang),
		FileType:  fileType,
		Uploaded:  uploaded.Truncate(24 * time.Hour),
		IsDeleted: deletedStr == "1",
		Pages:     pages,
		Year:      year,
	}, nil
}

func (Book) Apply(ctx context.Context, pool *pgxpool.Pool, sourceID int64, row BookRow) error {
	_, err := pool.Exec(ctx,
		"SELECT update_book($1, $2, cast($3 as varchar), cast($4 as varchar), cast($5 as varchar), $6, $7, $8, $9);",
		sourceID, row.RemoteID, row.Title, row.Lang, row.FileType, row.Uploaded, row.IsDeleted, row.Pages, row.Year,
	)
	return dberr.Wrap(err, "book.apply")
}

// After enforces the language filter: any book whose language
// is not in [constants.AllowedLanguages] is marked deleted, regardless of
// what the dump said.
func (Book) After(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `UPDATE books SET is_deleted = true WHERE lang NOT IN ('ru', 'be', 'uk');`)
	return dberr.Wrap(err, "book.after")
}
