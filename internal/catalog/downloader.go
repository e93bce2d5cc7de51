package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arcanaland/highlander/internal/fetch"
	"github.com/arcanaland/highlander/internal/metrics"
)

// Download defaults
const (
	DefaultMetadataURL     = "https://api.scryfall.com/bulk-data/oracle-cards"
	DefaultRetries         = 3
	DefaultFetchAttempts   = 3
	DefaultMetadataTimeout = 30 * time.Second
	DefaultBackoff         = 5 * time.Second
)

// ErrNoDownloadURI is returned when the metadata response lacks download_uri
var ErrNoDownloadURI = errors.New("no download URI found in bulk data response")

// CatalogUnavailableError is returned when every download attempt failed
type CatalogUnavailableError struct {
	Attempts int
	Err      error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("failed to download card data after %d attempts: %v", e.Attempts, e.Err)
}

func (e *CatalogUnavailableError) Unwrap() error {
	return e.Err
}

// bulkDataInfo is the metadata endpoint response
type bulkDataInfo struct {
	DownloadURI string `json:"download_uri"`
	UpdatedAt   string `json:"updated_at"`
	Size        int64  `json:"size"`
}

// DownloaderConfig configures a Downloader. Zero values use the defaults.
type DownloaderConfig struct {
	MetadataURL string
	// Retries is how many times the whole sequence is retried after a
	// failure. A negative value disables retrying.
	Retries int
	// FetchAttempts is passed to FetchWithRetry for each request
	FetchAttempts   int
	MetadataTimeout time.Duration
	Backoff         time.Duration
	Sleep           fetch.SleepFunc
	Logger          *zap.Logger
}

// Downloader fetches the bulk catalog, parses it, writes the cache and
// reloads the store.
type Downloader struct {
	fetcher *fetch.Fetcher
	parser  *Parser
	store   *Store

	metadataURL     string
	retries         int
	fetchAttempts   int
	metadataTimeout time.Duration
	backoff         time.Duration
	sleep           fetch.SleepFunc
	logger          *zap.Logger
}

// NewDownloader creates a downloader feeding store and registers it as the
// store's repairer.
func NewDownloader(fetcher *fetch.Fetcher, store *Store, config DownloaderConfig) *Downloader {
	d := &Downloader{
		fetcher:         fetcher,
		store:           store,
		metadataURL:     config.MetadataURL,
		retries:         config.Retries,
		fetchAttempts:   config.FetchAttempts,
		metadataTimeout: config.MetadataTimeout,
		backoff:         config.Backoff,
		sleep:           config.Sleep,
		logger:          config.Logger,
	}
	if d.metadataURL == "" {
		d.metadataURL = DefaultMetadataURL
	}
	switch {
	case d.retries == 0:
		d.retries = DefaultRetries
	case d.retries < 0:
		d.retries = 0
	}
	if d.fetchAttempts <= 0 {
		d.fetchAttempts = DefaultFetchAttempts
	}
	if d.metadataTimeout <= 0 {
		d.metadataTimeout = DefaultMetadataTimeout
	}
	if d.backoff <= 0 {
		d.backoff = DefaultBackoff
	}
	if d.sleep == nil {
		d.sleep = fetch.Sleep
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.parser = NewParser(d.logger)
	store.SetRepairer(d)
	return d
}

// Download runs the full sequence, retrying all of it with a growing delay.
// Once the retries are used up a *CatalogUnavailableError is returned.
func (d *Downloader) Download(ctx context.Context) error {
	logger := d.logger.With(zap.String("run", uuid.NewString()))

	for remaining := d.retries; ; remaining-- {
		attempt := d.retries - remaining + 1
		_, err := d.downloadOnce(ctx, logger)
		if err == nil {
			metrics.DownloadAttempts.WithLabelValues("success").Inc()
			return nil
		}
		metrics.DownloadAttempts.WithLabelValues("failure").Inc()
		logger.Error("error fetching bulk card data", zap.Int("attempt", attempt), zap.Error(err))

		if remaining <= 0 || ctx.Err() != nil {
			return &CatalogUnavailableError{Attempts: attempt, Err: err}
		}

		delay := time.Duration(attempt) * d.backoff
		logger.Info("retrying download",
			zap.Duration("delay", delay),
			zap.Int("remaining", remaining-1))
		if sleepErr := d.sleep(ctx, delay); sleepErr != nil {
			return &CatalogUnavailableError{Attempts: attempt, Err: errors.Join(err, sleepErr)}
		}
	}
}

// DownloadStats runs Download and reports statistics about the stored catalog.
func (d *Downloader) DownloadStats(ctx context.Context) (Stats, error) {
	if err := d.Download(ctx); err != nil {
		return Stats{}, err
	}
	return ComputeStats(d.store.Cards(), d.store.Format(), d.store.Lists()), nil
}

func (d *Downloader) downloadOnce(ctx context.Context, logger *zap.Logger) (Stats, error) {
	logger.Info("fetching bulk data information", zap.String("url", d.metadataURL))
	info, err := d.fetchBulkDataInfo(ctx)
	if err != nil {
		return Stats{}, err
	}

	logger.Info("starting streaming download",
		zap.String("url", info.DownloadURI),
		zap.Int64("size", info.Size),
		zap.String("updated_at", info.UpdatedAt))
	resp, err := d.fetcher.FetchWithRetry(ctx, info.DownloadURI, nil, d.fetchAttempts)
	if err != nil {
		return Stats{}, err
	}
	if err := fetch.CheckStatus(resp); err != nil {
		return Stats{}, err
	}
	body, err := fetch.OpenBody(resp)
	if err != nil {
		return Stats{}, err
	}
	defer body.Close()

	cards, parsed, err := d.parser.Parse(ctx, body)
	if err != nil {
		return Stats{}, fmt.Errorf("error streaming card data: %w", err)
	}
	logger.Info("successfully processed cards",
		zap.Int("processed", parsed.Examined),
		zap.Int("kept", len(cards)))

	stats := ComputeStats(cards, d.store.Format(), d.store.Lists())
	logger.Info("statistics",
		zap.Int("total", stats.Total),
		zap.Int("format_legal", stats.FormatLegal),
		zap.Int("banned", stats.Banned),
		zap.Int("allowed", stats.Allowed))

	logger.Info("caching processed cards", zap.String("path", d.store.Path()))
	if err := d.store.Persist(cards); err != nil {
		return Stats{}, err
	}

	logger.Info("reloading cards after cache update")
	if err := d.store.Reload(); err != nil {
		return Stats{}, fmt.Errorf("error reloading card cache: %w", err)
	}
	return stats, nil
}

// fetchBulkDataInfo resolves the bulk payload location under the metadata timeout
func (d *Downloader) fetchBulkDataInfo(ctx context.Context) (*bulkDataInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, d.metadataTimeout)
	defer cancel()

	resp, err := d.fetcher.FetchWithRetry(ctx, d.metadataURL, nil, d.fetchAttempts)
	if err != nil {
		return nil, err
	}

	var info bulkDataInfo
	if err := fetch.DecodeJSON(resp, &info); err != nil {
		return nil, err
	}
	if info.DownloadURI == "" {
		return nil, ErrNoDownloadURI
	}
	return &info, nil
}
