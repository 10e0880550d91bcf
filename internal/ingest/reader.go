package ingest

import (
	"bufio"
	"os"
)

// LineReader lazily iterates the lines of a local file, one SQL statement
// per line. It is a thin wrapper around [bufio.Scanner] sized for the
// multi-megabyte INSERT lines a dump produces.
type LineReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// maxLineBytes bounds a single buffered line; dump INSERT statements can
// carry thousands of row tuples on one line.
const maxLineBytes = 64 * 1024 * 1024

// OpenLineReader opens path for lazy line-by-line iteration.
func OpenLineReader(path string) (*LineReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	return &LineReader{file: f, scanner: scanner}, nil
}

// Next advances to the next line, returning false once the file is
// exhausted or an I/O error occurred (check [LineReader.Err]).
func (r *LineReader) Next() bool {
	return r.scanner.Scan()
}

// Text returns the current line's text.
func (r *LineReader) Text() string {
	return r.scanner.Text()
}

// Err returns the first non-EOF error encountered by the scanner.
func (r *LineReader) Err() error {
	return r.scanner.Err()
}

// Close releases the underlying file handle.
func (r *LineReader) Close() error {
	return r.file.Close()
}
