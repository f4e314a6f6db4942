package wordlist

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxListSize bounds a downloaded list; the largest real lists are a few MB.
const maxListSize = 64 * 1024 * 1024

// Downloader fetches missing word lists.
type Downloader struct {
	Client *http.Client
	Logger *slog.Logger
}

// NewDownloader returns a Downloader with a bounded HTTP timeout.
func NewDownloader(logger *slog.Logger) *Downloader {
	return &Downloader{
		Client: &http.Client{Timeout: 60 * time.Second},
		Logger: logger,
	}
}

// Ensure checks if the list exists at path. If not and url is set, it
// downloads the list (gunzipping .gz URLs) and writes it atomically.
func (d *Downloader) Ensure(ctx context.Context, path, url string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if url == "" {
		return fmt.Errorf("word list %s is missing and no download URL is configured", path)
	}

	if d.Logger != nil {
		d.Logger.Info("downloading word list", "path", path, "url", url)
	}
	return d.download(ctx, url, path)
}

func (d *Downloader) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "wordcoverage-cli")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	// Write to a temp file in the same directory so a failed download never
	// leaves a truncated list behind.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".wordlist-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(body, maxListSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write word list: %w", err)
	}
	if n > maxListSize {
		return fmt.Errorf("word list exceeds %d bytes", maxListSize)
	}
	return os.Rename(tmp.Name(), destPath)
}
