package cmd

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/arcanaland/highlander/internal/catalog"
	"github.com/arcanaland/highlander/internal/fetch"
	"github.com/arcanaland/highlander/internal/rulelists"
	"github.com/arcanaland/highlander/internal/validator"
)

// app wires the components every command shares
type app struct {
	lists      *rulelists.Lists
	store      *catalog.Store
	fetcher    *fetch.Fetcher
	downloader *catalog.Downloader
	engine     *validator.Engine
}

func newApp(ctx context.Context) (*app, error) {
	lists := rulelists.New(logger)
	if err := lists.Load(ctx, cfg.ListsDir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Warn("card lists not found, continuing with empty lists; run 'highlander lists init' to create them",
			zap.String("dir", cfg.ListsDir))
	}

	store := catalog.NewStore(catalog.StoreConfig{
		Path:      cfg.CacheFile,
		Format:    cfg.Format,
		Lists:     lists,
		Logger:    logger,
		BuildMode: buildMode,
	})

	fetcher := fetch.New(fetch.Config{
		Interval:  cfg.RequestInterval.Duration,
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{},
		Logger:    logger,
	})

	retries := cfg.DownloadRetries
	if retries == 0 {
		retries = -1
	}
	downloader := catalog.NewDownloader(fetcher, store, catalog.DownloaderConfig{
		MetadataURL:     cfg.MetadataURL,
		Retries:         retries,
		FetchAttempts:   cfg.FetchAttempts,
		MetadataTimeout: cfg.MetadataTimeout.Duration,
		Logger:          logger,
	})

	return &app{
		lists:      lists,
		store:      store,
		fetcher:    fetcher,
		downloader: downloader,
		engine:     validator.NewEngine(store, logger),
	}, nil
}

// loadCatalog reads the card cache, downloading it when missing
func (a *app) loadCatalog(ctx context.Context) error {
	return a.store.Load(ctx)
}
