package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/highlander/internal/fetch"
	"github.com/arcanaland/highlander/internal/rulelists"
)

type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleep) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// catalogServer serves a metadata document pointing at a bulk payload
func catalogServer(t *testing.T, gzipped bool) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var bulkCalls atomic.Int32
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/bulk-data/oracle-cards", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"bulk_data","download_uri":"` + server.URL + `/oracle-cards.json","size":1234}`))
	})
	mux.HandleFunc("/oracle-cards.json", func(w http.ResponseWriter, r *http.Request) {
		bulkCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if !gzipped {
			w.Write([]byte(sampleCatalog))
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		zw.Write([]byte(sampleCatalog))
		zw.Close()
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &bulkCalls
}

func newTestDownloader(t *testing.T, metadataURL string, sleeper *recordingSleep) (*Downloader, *Store) {
	t.Helper()
	store := newTestStore(t, StoreConfig{Lists: rulelists.New(nil)})
	fetcher := fetch.New(fetch.Config{Interval: -1, Sleep: sleeper.Sleep})
	d := NewDownloader(fetcher, store, DownloaderConfig{
		MetadataURL: metadataURL,
		Sleep:       sleeper.Sleep,
	})
	return d, store
}

func TestDownloader_Download(t *testing.T) {
	for _, gzipped := range []bool{false, true} {
		server, bulkCalls := catalogServer(t, gzipped)
		sleeper := &recordingSleep{}
		d, store := newTestDownloader(t, server.URL+"/bulk-data/oracle-cards", sleeper)

		stats, err := d.DownloadStats(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int32(1), bulkCalls.Load())
		assert.Equal(t, 2, store.Len())
		assert.Equal(t, Stats{Total: 2, FormatLegal: 1}, stats)
		assert.NotNil(t, store.Resolve("Brace {yourself}"))
		assert.FileExists(t, store.Path())
		assert.Empty(t, sleeper.Delays())
	}
}

func TestDownloader_RepairsStoreOnLoad(t *testing.T) {
	server, _ := catalogServer(t, false)
	_, store := newTestDownloader(t, server.URL+"/bulk-data/oracle-cards", &recordingSleep{})

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, 2, store.Len())
}

func TestDownloader_RetriesWithGrowingDelay(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	sleeper := &recordingSleep{}
	d, store := newTestDownloader(t, server.URL, sleeper)

	err := d.Download(context.Background())

	var unavailable *CatalogUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 4, unavailable.Attempts)
	assert.ErrorContains(t, err, "status: 502")
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}, sleeper.Delays())
	assert.Zero(t, store.Len())
}

func TestDownloader_MissingDownloadURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"object":"bulk_data"}`))
	}))
	defer server.Close()

	store := newTestStore(t, StoreConfig{})
	fetcher := fetch.New(fetch.Config{Interval: -1})
	d := NewDownloader(fetcher, store, DownloaderConfig{MetadataURL: server.URL, Retries: -1})

	err := d.Download(context.Background())
	assert.ErrorIs(t, err, ErrNoDownloadURI)

	var unavailable *CatalogUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 1, unavailable.Attempts)
}

func TestDownloader_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sleeper := &recordingSleep{}
	d, _ := newTestDownloader(t, "http://catalog.invalid/bulk", sleeper)

	err := d.Download(ctx)
	var unavailable *CatalogUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 1, unavailable.Attempts)
	assert.ErrorIs(t, err, context.Canceled)
}
