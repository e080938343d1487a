package teams

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linebridge/bridge/internal/channel"
)

func TestPostText(t *testing.T) {
	t.Parallel()

	var got map[string]string
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := NewClient(nil, time.Second).PostText(context.Background(), srv.URL, "from Alice: hi")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]string{"text": "from Alice: hi"}, got)
}

func TestPostTextRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "flow disabled", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(nil, time.Second).PostText(context.Background(), srv.URL, "x")
	require.ErrorIs(t, err, channel.ErrUpstreamRejected)
	assert.Contains(t, err.Error(), "flow disabled")
}

func TestPostTextRequiresEndpoint(t *testing.T) {
	t.Parallel()

	if err := NewClient(nil, 0).PostText(context.Background(), "  ", "x"); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}
