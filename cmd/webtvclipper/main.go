package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"webtv-clipper/pkg/config"
	"webtv-clipper/pkg/db"
	"webtv-clipper/pkg/download"
	"webtv-clipper/pkg/ffmpeg"
	"webtv-clipper/pkg/httpclient"
	"webtv-clipper/pkg/ingest"
	"webtv-clipper/pkg/notify"
	"webtv-clipper/pkg/processor"
	"webtv-clipper/pkg/scheduler"
	"webtv-clipper/pkg/scrape"
	"webtv-clipper/pkg/storage"
)

func main() {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	mailer := notify.NewMailer(notify.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.AlertFrom,
		To:       cfg.AlertTo,
	}, log)

	// An unrecoverable fault escaping a loop notifies the operator and
	// terminates the process; there is no supervisor or auto-restart.
	onFatal := func(loopName string, v any) {
		log.Errorf("FATAL: %s loop crashed: %v", loopName, v)
		body := fmt.Sprintf("The webtv-clipper %s loop crashed at %s:\n\n%v",
			loopName, time.Now().Format(time.RFC3339), v)
		if err := mailer.Notify("webtv-clipper: unrecoverable fault", body); err != nil {
			log.Errorf("Operator notification failed: %v", err)
		}
		os.Exit(1)
	}

	ctx := context.Background()

	pg := db.NewPostgresClient(db.PostgresConfig{DSN: cfg.DatabaseDSN})
	if err := pg.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	store := db.NewSessionStore(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	blobs, err := storage.NewSupabaseStore(storage.SupabaseConfig{
		ProjectURL: cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseKey,
		Bucket:     cfg.SupabaseBucket,
	})
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	pages := httpclient.New(httpclient.BrowserProfile)
	// Full-length broadcasts can take arbitrarily long to stream down, so
	// the media client carries no request timeout.
	media := httpclient.NewWithTimeout(httpclient.PlainProfile, 0)

	discoverers := []ingest.Discoverer{
		scrape.NewDiscoverer(pages, cfg.ListingURL, cfg.BaseURL, cfg.MinDurationSeconds, log),
	}
	if cfg.FeedURL != "" {
		discoverers = append(discoverers,
			scrape.NewFeedDiscoverer(cfg.FeedURL, cfg.BaseURL, cfg.MinDurationSeconds, log))
	}

	discovery := ingest.NewService(
		discoverers,
		scrape.NewEnricher(pages, cfg.BaseURL, log),
		store,
		blobs,
		log,
	)

	processing := processor.NewProcessor(
		store,
		blobs,
		ffmpeg.NewExtractor(),
		download.NewDownloader(media, log),
		cfg.ClipLengthSeconds,
		cfg.ProcessWorkers,
		log,
	)

	discoveryLoop := &scheduler.Loop{
		Name:     "discovery",
		Interval: cfg.PollInterval,
		Cycle:    discovery.RunCycle,
		OnFatal:  onFatal,
		Log:      log,
	}
	processingLoop := &scheduler.Loop{
		Name:     "processing",
		Interval: cfg.PollInterval,
		Cycle:    processing.RunCycle,
		OnFatal:  onFatal,
		Log:      log,
	}

	log.Infof("Starting webtv-clipper: listing=%s interval=%s", cfg.ListingURL, cfg.PollInterval)

	// The two loops are independent and share nothing in-process; they
	// communicate only through the sessions table.
	go discoveryLoop.Run(ctx)
	processingLoop.Run(ctx)
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
