// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/citation-snowball/pkg/types"
)

type fakeStore struct {
	updates map[string]types.DownloadStatus
	paths   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		updates: make(map[string]types.DownloadStatus),
		paths:   make(map[string]string),
	}
}

func (s *fakeStore) UpdateDownload(_ context.Context, paperID string, status types.DownloadStatus, localPath string) error {
	s.updates[paperID] = status
	s.paths[paperID] = localPath
	return nil
}

func pdfServer(t *testing.T, statusCode int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestDownloadAll(t *testing.T) {
	ts := pdfServer(t, http.StatusOK)
	store := newFakeStore()
	dir := t.TempDir()
	d := &Downloader{Client: ts.Client(), Store: store, Dir: dir}

	papers := []types.Paper{
		{ID: "p1", OpenAlexID: "W1", OpenAccessURL: ts.URL + "/w1.pdf", DownloadStatus: types.DownloadPending},
		{ID: "p2", OpenAlexID: "W2", DownloadStatus: types.DownloadPending}, // no URL
	}

	var out bytes.Buffer
	result, err := d.DownloadAll(context.Background(), papers, &out)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if result.Downloaded != 1 || result.Skipped != 1 || result.Failed != 0 {
		t.Errorf("result = %+v, want 1 downloaded, 1 skipped", result)
	}

	if store.updates["p1"] != types.DownloadSuccess {
		t.Errorf("p1 status = %q, want success", store.updates["p1"])
	}
	wantPath := filepath.Join(dir, "W1.pdf")
	if store.paths["p1"] != wantPath {
		t.Errorf("p1 path = %q, want %q", store.paths["p1"], wantPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
	if store.updates["p2"] != types.DownloadSkipped {
		t.Errorf("p2 status = %q, want skipped", store.updates["p2"])
	}
	if !strings.Contains(out.String(), "no open-access URL") {
		t.Errorf("output %q, want skip reason", out.String())
	}
}

func TestDownloadAllFailureContinues(t *testing.T) {
	ts := pdfServer(t, http.StatusForbidden)
	okServer := pdfServer(t, http.StatusOK)
	store := newFakeStore()
	d := &Downloader{Client: ts.Client(), Store: store, Dir: t.TempDir()}

	papers := []types.Paper{
		{ID: "p1", OpenAlexID: "W1", OpenAccessURL: ts.URL + "/w1.pdf"},
		{ID: "p2", OpenAlexID: "W2", OpenAccessURL: okServer.URL + "/w2.pdf"},
	}

	var out bytes.Buffer
	result, err := d.DownloadAll(context.Background(), papers, &out)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if result.Failed != 1 || result.Downloaded != 1 {
		t.Errorf("result = %+v, want 1 failed, 1 downloaded", result)
	}
	if store.updates["p1"] != types.DownloadFailed {
		t.Errorf("p1 status = %q, want failed", store.updates["p1"])
	}
	if !strings.Contains(out.String(), "warning") {
		t.Errorf("output %q, want per-item warning", out.String())
	}
}

func TestDownloadAllSkipsExisting(t *testing.T) {
	store := newFakeStore()
	dir := t.TempDir()
	existing := filepath.Join(dir, "W1.pdf")
	if err := os.WriteFile(existing, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := &Downloader{Client: http.DefaultClient, Store: store, Dir: dir}
	papers := []types.Paper{
		{ID: "p1", OpenAlexID: "W1", OpenAccessURL: "http://unused.invalid/w1.pdf",
			DownloadStatus: types.DownloadSuccess, LocalPath: existing},
	}

	result, err := d.DownloadAll(context.Background(), papers, io.Discard)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if result.Skipped != 1 || result.Downloaded != 0 {
		t.Errorf("result = %+v, want 1 skipped", result)
	}
	if _, touched := store.updates["p1"]; touched {
		t.Error("already-downloaded paper should not be re-recorded")
	}
}

func TestDownloadAllRetryFailed(t *testing.T) {
	ts := pdfServer(t, http.StatusOK)
	store := newFakeStore()
	papers := []types.Paper{
		{ID: "p1", OpenAlexID: "W1", OpenAccessURL: ts.URL + "/w1.pdf", DownloadStatus: types.DownloadFailed},
	}

	d := &Downloader{Client: ts.Client(), Store: store, Dir: t.TempDir()}
	result, err := d.DownloadAll(context.Background(), papers, io.Discard)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("without RetryFailed: result = %+v, want 1 skipped", result)
	}

	d.RetryFailed = true
	result, err = d.DownloadAll(context.Background(), papers, io.Discard)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if result.Downloaded != 1 {
		t.Errorf("with RetryFailed: result = %+v, want 1 downloaded", result)
	}
	if store.updates["p1"] != types.DownloadSuccess {
		t.Errorf("p1 status = %q, want success", store.updates["p1"])
	}
}
