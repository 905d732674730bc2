// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches open-access PDFs for collected papers.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

// Store persists download outcomes.
type Store interface {
	UpdateDownload(ctx context.Context, paperID string, status types.DownloadStatus, localPath string) error
}

// BatchResult holds the outcome of a batch download run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of papers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// Downloader fetches open-access PDFs into a directory, one file per paper
// named by its OpenAlex id.
type Downloader struct {
	Client    *http.Client
	Store     Store
	Dir       string
	UserAgent string

	// Delay between consecutive downloads.
	Delay time.Duration

	// RetryFailed re-attempts papers whose last download failed.
	RetryFailed bool
}

// DownloadAll downloads every paper with an open-access URL, printing
// per-item status. Papers without a URL are marked skipped; individual
// failures are recorded and do not stop the batch.
func (d *Downloader) DownloadAll(ctx context.Context, papers []types.Paper, w io.Writer) (BatchResult, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return BatchResult{}, fmt.Errorf("creating download directory: %w", err)
	}

	var result BatchResult
	first := true
	for _, paper := range papers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		switch paper.DownloadStatus {
		case types.DownloadSuccess:
			if _, err := os.Stat(paper.LocalPath); err == nil {
				result.Skipped++
				continue
			}
		case types.DownloadFailed:
			if !d.RetryFailed {
				result.Skipped++
				continue
			}
		}

		if paper.OpenAccessURL == "" {
			fmt.Fprintf(w, "skipped: %s (no open-access URL)\n", paper.OpenAlexID)
			if err := d.Store.UpdateDownload(ctx, paper.ID, types.DownloadSkipped, ""); err != nil {
				return result, err
			}
			result.Skipped++
			continue
		}

		if !first && d.Delay > 0 {
			time.Sleep(d.Delay)
		}
		first = false

		dest := filepath.Join(d.Dir, paper.OpenAlexID+".pdf")
		fmt.Fprintf(w, "downloading: %s\n", paper.OpenAlexID)
		if err := d.downloadFile(ctx, paper.OpenAccessURL, dest); err != nil {
			fmt.Fprintf(w, "  warning: download failed: %v\n", err)
			if err := d.Store.UpdateDownload(ctx, paper.ID, types.DownloadFailed, ""); err != nil {
				return result, err
			}
			result.Failed++
			continue
		}

		if err := d.Store.UpdateDownload(ctx, paper.ID, types.DownloadSuccess, dest); err != nil {
			return result, err
		}
		result.Downloaded++
	}
	return result, nil
}

// downloadFile writes the response body to a temp file in the destination
// directory and renames it into place on success, so a partial download
// never leaves a truncated PDF behind.
func (d *Downloader) downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
