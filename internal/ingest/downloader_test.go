package ingest

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
)

func gzipBody(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestDownloader_Download(t *testing.T) {
	const body = "INSERT INTO t VALUES (1,'a');\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sql/lib.test.sql.gz", r.URL.Path)
		w.Write(gzipBody(t, body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	d := NewDownloader(srv.URL, nil)
	result, err := d.Download(context.Background(), "lib.test.sql")
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), result.Bytes)
	assert.NotZero(t, result.Checksum)

	written, err := os.ReadFile(filepath.Join(dir, "lib.test.sql"))
	require.NoError(t, err)
	assert.Equal(t, body, string(written))
}

func TestDownloader_Download_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	d := NewDownloader(srv.URL, nil)
	_, err = d.Download(context.Background(), "lib.missing.sql")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeHTTPStatus))
}
