package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/3leaps/getrel/internal/model"
)

func TestFetch(t *testing.T) {
	payload := []byte("release binary payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	res, err := New().Fetch(context.Background(), model.Asset{
		Name: "tool-linux-amd64.tar.gz",
		URL:  srv.URL + "/tool-linux-amd64.tar.gz",
		Size: int64(len(payload)),
	}, dir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if res.Path != filepath.Join(dir, "tool-linux-amd64.tar.gz") {
		t.Errorf("Path = %q", res.Path)
	}
	got, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("downloaded content mismatch")
	}

	sum := sha256.Sum256(payload)
	if res.SHA256 != hex.EncodeToString(sum[:]) {
		t.Errorf("SHA256 = %q, want %q", res.SHA256, hex.EncodeToString(sum[:]))
	}
	if res.Size != int64(len(payload)) {
		t.Errorf("Size = %d", res.Size)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover temp files: %v", entries)
	}
}

func TestFetchSizeMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("short"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := New().Fetch(context.Background(), model.Asset{
		Name: "tool.bin",
		URL:  srv.URL,
		Size: 9999,
	}, dir)
	if err == nil {
		t.Fatal("want size mismatch error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("partial download left behind: %v", entries)
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := New().Fetch(context.Background(), model.Asset{Name: "x", URL: srv.URL}, t.TempDir())
	if err == nil {
		t.Fatal("want error for 404")
	}
}
