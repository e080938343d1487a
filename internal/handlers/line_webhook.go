package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/linebridge/bridge/internal/channel/adapters/line"
	"github.com/linebridge/bridge/internal/logger"
)

const webhookMaxBodyBytes int64 = 1 << 20 // 1 MiB

// BatchProcessor relays a LINE webhook batch.
type BatchProcessor interface {
	Handle(ctx context.Context, batch line.WebhookBatch)
}

// LineWebhookHandler acknowledges LINE callbacks at once and relays their
// events in the background.
type LineWebhookHandler struct {
	logger    *slog.Logger
	processor BatchProcessor
	inflight  sync.WaitGroup
}

func NewLineWebhookHandler(log *slog.Logger, processor BatchProcessor) *LineWebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &LineWebhookHandler{
		logger:    log.With(slog.String("handler", "line_webhook")),
		processor: processor,
	}
}

func (h *LineWebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook/line", h.Handle)
}

// Handle always answers 200. Unreadable or malformed bodies are logged and
// dropped.
func (h *LineWebhookHandler) Handle(c echo.Context) error {
	relayID := logger.NewRelayID()
	c.Response().Header().Set(RelayIDHeader, relayID)
	log := h.logger.With(slog.String("relay_id", relayID))

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes+1))
	if err != nil {
		log.Warn("read line webhook body failed", slog.Any("error", err))
		return c.String(http.StatusOK, "OK")
	}
	if int64(len(payload)) > webhookMaxBodyBytes {
		log.Warn("line webhook body too large", slog.Int("bytes", len(payload)))
		return c.String(http.StatusOK, "OK")
	}

	ctx := logger.WithRelayID(context.WithoutCancel(c.Request().Context()), relayID)
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("line webhook processing panicked", slog.Any("panic", r))
			}
		}()
		var batch line.WebhookBatch
		if err := json.Unmarshal(payload, &batch); err != nil {
			log.Warn("malformed line webhook body", slog.Any("error", err))
			return
		}
		if h.processor == nil {
			log.Warn("line webhook processor not configured")
			return
		}
		log.Debug("line webhook received", slog.Int("events", len(batch.Events)))
		h.processor.Handle(ctx, batch)
	}()
	return c.String(http.StatusOK, "OK")
}

// Wait blocks until every accepted batch finished or ctx ends.
func (h *LineWebhookHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
