// Package download streams session media files to local temporary storage.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"webtv-clipper/pkg/httpclient"
)

// Downloader fetches media files over HTTP.
type Downloader struct {
	client *httpclient.Client
	log    *logrus.Logger
}

// NewDownloader creates a downloader. The client should carry no request
// timeout: a full broadcast download can outlast any reasonable fixed cap.
func NewDownloader(client *httpclient.Client, log *logrus.Logger) *Downloader {
	return &Downloader{client: client, log: log}
}

// Fetch streams url into destPath. On any failure the partial file is
// removed, never left half-written. A byte count short of the declared
// Content-Length is logged as a data-integrity warning but the file is
// kept, matching the upstream policy of not failing whole sessions on
// flaky length headers.
func (d *Downloader) Fetch(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status code %d", url, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(destPath)
		return fmt.Errorf("download %s: %w", url, err)
	}

	if resp.ContentLength >= 0 && written != resp.ContentLength {
		d.log.Warnf("Download %s: wrote %d bytes, Content-Length declared %d",
			url, written, resp.ContentLength)
	}

	return nil
}
