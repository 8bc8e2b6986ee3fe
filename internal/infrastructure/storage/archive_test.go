package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func archiveConfig(endpoint string) config.StorageConfig {
	return config.StorageConfig{
		Enabled:        true,
		Bucket:         "exports",
		AccessKeyID:    "test-key",
		SecretKey:      "test-secret",
		Endpoint:       endpoint,
		UsePathStyle:   true,
		PresignExpires: 10 * time.Minute,
	}
}

// fakeS3 answers every request with the status registered for its method
// and records what it saw.
type fakeS3 struct {
	mu       sync.Mutex
	status   map[string]int
	requests []string
	types    []string
}

func newFakeS3(t *testing.T, status map[string]int) (*fakeS3, string) {
	f := &fakeS3{status: status}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.types = append(f.types, r.Header.Get("Content-Type"))
		code, ok := f.status[r.Method]
		f.mu.Unlock()
		if !ok {
			code = http.StatusOK
		}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(code)
	}))
	t.Cleanup(server.Close)
	return f, server.URL
}

func (f *fakeS3) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func TestNewS3Archive_Config(t *testing.T) {
	ctx := context.Background()

	t.Run("reports every missing field", func(t *testing.T) {
		_, err := NewS3Archive(ctx, config.StorageConfig{}, nil)
		require.Error(t, err)
		for _, want := range []string{"bucket is required", "access key is required", "secret key is required"} {
			assert.Contains(t, err.Error(), want)
		}
	})

	t.Run("endpoint without host", func(t *testing.T) {
		_, err := NewS3Archive(ctx, archiveConfig("http://"), nil)
		assert.ErrorContains(t, err, "invalid storage endpoint")
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := archiveConfig("localhost:9000")
		cfg.PresignExpires = 0
		a, err := NewS3Archive(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, DefaultLinkTTL, a.ttl)
		assert.Equal(t, "exports", a.bucket)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"":                      "",
		"minio:9000":            "https://minio:9000",
		"http://localhost:9000": "http://localhost:9000",
		"https://s3.example":    "https://s3.example",
	}
	for in, want := range tests {
		got, err := normalizeEndpoint(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestS3Archive_EnsureBucket(t *testing.T) {
	tests := []struct {
		name     string
		status   map[string]int
		requests []string
		wantErr  string
	}{
		{name: "bucket exists", requests: []string{"HEAD /exports"}},
		{
			name:     "missing bucket is created",
			status:   map[string]int{http.MethodHead: http.StatusNotFound},
			requests: []string{"HEAD /exports", "PUT /exports"},
		},
		{
			name:     "denied check fails",
			status:   map[string]int{http.MethodHead: http.StatusForbidden},
			requests: []string{"HEAD /exports"},
			wantErr:  "failed to check bucket",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, endpoint := newFakeS3(t, tt.status)
			a, err := NewS3Archive(context.Background(), archiveConfig(endpoint), nil)
			require.NoError(t, err)

			err = a.EnsureBucket(context.Background())
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.requests, fake.seen())
		})
	}
}

func TestS3Archive_Put(t *testing.T) {
	fake, endpoint := newFakeS3(t, nil)
	a, err := NewS3Archive(context.Background(), archiveConfig(endpoint), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Put(context.Background(), "", "text/plain", []byte("x")), ErrEmptyKey)
	require.NoError(t, a.Put(context.Background(), "tenant/statement.csv", "text/csv", []byte("Type,Date\n")))

	assert.Equal(t, []string{"PUT /exports/tenant/statement.csv"}, fake.seen())
	assert.Equal(t, []string{"text/csv"}, fake.types)
}

func TestS3Archive_PresignDownload(t *testing.T) {
	a, err := NewS3Archive(context.Background(), archiveConfig("http://localhost:9000"), nil)
	require.NoError(t, err)

	_, _, err = a.PresignDownload(context.Background(), "", "", time.Minute)
	assert.ErrorIs(t, err, ErrEmptyKey)

	raw, expiresAt, err := a.PresignDownload(context.Background(), "tenant/2026/statement.csv", "statement.csv", 0)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/exports/tenant/2026/statement.csv"))
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("response-content-disposition"), "statement.csv")
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 5*time.Second)
}

func TestMemoryArchive(t *testing.T) {
	m := NewMemoryArchive()
	m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	data := []byte("a,b")
	require.NoError(t, m.Put(ctx, "t/file.csv", "text/csv", data))
	data[0] = 'z'

	obj, ok := m.Object("t/file.csv")
	require.True(t, ok)
	assert.Equal(t, "a,b", string(obj.Data))
	assert.Equal(t, "text/csv", obj.ContentType)
	assert.Equal(t, 1, m.Len())

	link, expiresAt, err := m.PresignDownload(ctx, "t/file.csv", "file.csv", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), expiresAt)
	assert.True(t, strings.HasPrefix(link, "https://archive.local/t/file.csv?"))
	assert.Contains(t, link, "filename=file.csv")

	assert.ErrorIs(t, m.Put(ctx, "", "", nil), ErrEmptyKey)
}
