package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/safar/tradein-store/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFile(t *testing.T) {
	var (
		gotPath, gotType, gotAuth string
		gotBody                   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Key":"docs/trade-ins/TI-20261019-abc123/ring.jpg"}`))
	}))
	defer srv.Close()

	c := New(config.StorageConfig{URL: srv.URL + "/", APIKey: "k", Timeout: time.Second})

	key, err := c.UploadFile(context.Background(), "docs", "trade-ins/TI-20261019-abc123/ring photo.jpg", "image/jpeg", strings.NewReader("jpeg"))
	require.NoError(t, err)

	assert.Equal(t, "docs/trade-ins/TI-20261019-abc123/ring.jpg", key)
	assert.Equal(t, "/object/docs/trade-ins/TI-20261019-abc123/ring%20photo.jpg", gotPath)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "Bearer k", gotAuth)
	assert.Equal(t, "jpeg", string(gotBody))
}

func TestUploadFileWithoutKeyFallsBackToPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(config.StorageConfig{URL: srv.URL, Timeout: time.Second})

	key, err := c.UploadFile(context.Background(), "docs", "a/b.pdf", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "docs/a/b.pdf", key)
}

func TestUploadFileError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(config.StorageConfig{URL: srv.URL, Timeout: time.Second})

	_, err := c.UploadFile(context.Background(), "missing", "a.pdf", "application/pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
