package downloader

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"riddle/pkg/errors"
	"riddle/pkg/logger"
	"riddle/pkg/storage"
	"riddle/pkg/ui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// imageHost serves fixed payloads by path and counts requests
type imageHost struct {
	files    map[string][]byte
	requests int32
	agent    atomic.Value
}

func newImageHost(t *testing.T, files map[string][]byte) (*imageHost, *httptest.Server) {
	host := &imageHost{files: files}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&host.requests, 1)
		host.agent.Store(r.Header.Get("User-Agent"))
		data, ok := host.files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return host, srv
}

type countingProgress struct{ ticks int }

func (p *countingProgress) Tick() { p.ticks++ }

func newStore(t *testing.T) *storage.Manager {
	store, err := storage.NewManager(filepath.Join(t.TempDir(), "pics"))
	require.NoError(t, err)
	return store
}

func TestDownloadFetchesNewFiles(t *testing.T) {
	host, srv := newImageHost(t, map[string][]byte{
		"a.jpg": []byte("aaaa"),
		"b.png": []byte("bbbb"),
	})
	store := newStore(t)
	progress := &countingProgress{}

	var out bytes.Buffer
	d := New(srv.Client(), 0, logger.NewTestLogger(),
		WithConsole(ui.NewConsole(&out, false)),
		WithUserAgent("riddle-test"))

	summary, err := d.Download(context.Background(),
		[]string{srv.URL + "/a.jpg", srv.URL + "/b.png?width=640"}, store, progress)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.PreExisting)
	assert.Equal(t, 2, progress.ticks)
	assert.EqualValues(t, 2, atomic.LoadInt32(&host.requests))
	assert.Equal(t, "riddle-test", host.agent.Load())

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.png"}, names)

	data, err := os.ReadFile(store.Path("a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "aaaa", string(data))

	assert.Contains(t, out.String(), "[~] Downloading 2 images to "+store.Dir())
	assert.Contains(t, out.String(),
		"[+] Successfully downloaded 2 out of 2 images to "+store.Dir()+" (0 already existed)")
}

func TestDownloadErrorsStartOnTheirOwnLine(t *testing.T) {
	_, srv := newImageHost(t, map[string][]byte{
		"a.jpg": []byte("aaaa"),
		"c.jpg": []byte("cccc"),
	})
	store := newStore(t)

	var out bytes.Buffer
	console := ui.NewConsole(&out, false)
	bar := ui.NewProgressBar(&out, 3, "Progress:", "Complete")
	d := New(srv.Client(), 0, logger.NewTestLogger(), WithConsole(console))

	urls := []string{srv.URL + "/a.jpg", srv.URL + "/gone.jpg", srv.URL + "/c.jpg"}
	summary, err := d.Download(context.Background(), urls, store, bar)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	var errLines int
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "[-]") {
			errLines++
			assert.True(t, strings.HasPrefix(line, "[-] "), "error shares a line with the bar: %q", line)
		}
	}
	assert.Equal(t, 1, errLines)
	assert.Contains(t, out.String(), "100.0% Complete\n")
}

func TestDownloadSkipsExisting(t *testing.T) {
	host, srv := newImageHost(t, map[string][]byte{"a.jpg": []byte("new")})
	store := newStore(t)
	_, err := store.Save(strings.NewReader("old"), "a.jpg")
	require.NoError(t, err)

	d := New(srv.Client(), 0, logger.NewTestLogger())
	summary, err := d.Download(context.Background(), []string{srv.URL + "/a.jpg"}, store, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 1, summary.PreExisting)
	assert.Equal(t, SkippedExisting, summary.Results[0].Outcome)
	assert.EqualValues(t, 0, atomic.LoadInt32(&host.requests), "existing files must not be re-fetched")

	data, err := os.ReadFile(store.Path("a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestDownloadRemovesUndersized(t *testing.T) {
	_, srv := newImageHost(t, map[string][]byte{
		"small.jpg": bytes.Repeat([]byte("x"), 512),
		"large.jpg": bytes.Repeat([]byte("x"), 4096),
	})
	store := newStore(t)

	d := New(srv.Client(), 2, logger.NewTestLogger())
	summary, err := d.Download(context.Background(),
		[]string{srv.URL + "/small.jpg", srv.URL + "/large.jpg"}, store, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, store.Exists("small.jpg"))
	assert.True(t, store.Exists("large.jpg"))
	assert.True(t, errors.IsType(summary.Results[0].Err, errors.ErrorTypeUndersized))
}

func TestDownloadFailuresDoNotAbort(t *testing.T) {
	_, srv := newImageHost(t, map[string][]byte{"ok.jpg": []byte("data")})
	store := newStore(t)

	var out bytes.Buffer
	d := New(srv.Client(), 0, logger.NewTestLogger(), WithConsole(ui.NewConsole(&out, false)))

	urls := []string{
		srv.URL + "/missing.jpg",
		"http://127.0.0.1:1/refused.jpg",
		"http://[::1/broken.jpg",
		srv.URL + "/",
		srv.URL + "/ok.jpg",
	}
	summary, err := d.Download(context.Background(), urls, store, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Attempted)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 4, summary.Failed)

	assert.True(t, errors.IsType(summary.Results[0].Err, errors.ErrorTypeNotFound))
	assert.True(t, errors.IsType(summary.Results[1].Err, errors.ErrorTypeNetwork))
	assert.True(t, errors.IsType(summary.Results[3].Err, errors.ErrorTypeURL))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.jpg"}, names, "failed downloads must leave no files")
	assert.Equal(t, 4, strings.Count(out.String(), "[-] "))
}

func TestDownloadEmptyBatch(t *testing.T) {
	store := newStore(t)
	progress := &countingProgress{}

	d := New(nil, 0, logger.NewTestLogger())
	summary, err := d.Download(context.Background(), nil, store, progress)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Attempted)
	assert.Equal(t, 0, progress.ticks)

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDownloadStopsOnCancel(t *testing.T) {
	host, srv := newImageHost(t, map[string][]byte{"a.jpg": []byte("a")})
	store := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(srv.Client(), 0, logger.NewTestLogger())
	_, err := d.Download(ctx, []string{srv.URL + "/a.jpg"}, store, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, atomic.LoadInt32(&host.requests))
}

func TestSummaryRecordFiltered(t *testing.T) {
	var s Summary
	s.RecordFiltered("https://i.example.com/a.gif", "https://v.example.com/clip")

	assert.Equal(t, 2, s.Filtered)
	require.Len(t, s.Results, 2)
	assert.Equal(t, SkippedFiltered, s.Results[0].Outcome)
	assert.Equal(t, "a.gif", s.Results[0].Filename)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "downloaded", Downloaded.String())
	assert.Equal(t, "skipped_existing", SkippedExisting.String())
	assert.Equal(t, "skipped_filtered", SkippedFiltered.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
