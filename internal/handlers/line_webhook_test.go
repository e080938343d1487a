package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/linebridge/bridge/internal/channel/adapters/line"
	"github.com/linebridge/bridge/internal/logger"
)

type recordingProcessor struct {
	mu       sync.Mutex
	batches  []line.WebhookBatch
	relayIDs []string
	release  chan struct{}
}

func (p *recordingProcessor) Handle(ctx context.Context, batch line.WebhookBatch) {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, batch)
	p.relayIDs = append(p.relayIDs, logger.RelayID(ctx))
}

func postLine(t *testing.T, h *LineWebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook/line", strings.NewReader(body))
	rec := httptest.NewRecorder()
	if err := h.Handle(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	return rec
}

func waitDrained(t *testing.T, h *LineWebhookHandler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestLineWebhookAcknowledgesBeforeProcessing(t *testing.T) {
	t.Parallel()

	p := &recordingProcessor{release: make(chan struct{})}
	h := NewLineWebhookHandler(nil, p)

	body := `{"events":[{"type":"message","message":{"type":"text","text":"hi"},"source":{"type":"group","groupId":"C1","userId":"U1"}}]}`
	rec := postLine(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	p.mu.Lock()
	processed := len(p.batches)
	p.mu.Unlock()
	if processed != 0 {
		t.Fatalf("batch processed before acknowledgement")
	}

	close(p.release)
	waitDrained(t, h)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.batches) != 1 || len(p.batches[0].Events) != 1 {
		t.Fatalf("unexpected batches: %+v", p.batches)
	}
	if p.relayIDs[0] == "" || p.relayIDs[0] != rec.Header().Get(RelayIDHeader) {
		t.Fatalf("relay id not propagated: %q vs %q", p.relayIDs[0], rec.Header().Get(RelayIDHeader))
	}
}

func TestLineWebhookMalformedBodyStillOK(t *testing.T) {
	t.Parallel()

	p := &recordingProcessor{}
	h := NewLineWebhookHandler(nil, p)

	rec := postLine(t, h, `not json`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	waitDrained(t, h)
	if len(p.batches) != 0 {
		t.Fatalf("malformed body should not reach the processor")
	}
}

func TestLineWebhookWaitHonorsContext(t *testing.T) {
	t.Parallel()

	p := &recordingProcessor{release: make(chan struct{})}
	h := NewLineWebhookHandler(nil, p)
	postLine(t, h, `{"events":[]}`)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.Wait(ctx); err == nil {
		t.Fatalf("expected wait to time out while a batch is blocked")
	}
	close(p.release)
	waitDrained(t, h)
}
