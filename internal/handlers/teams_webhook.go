package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/linebridge/bridge/internal/channel"
	"github.com/linebridge/bridge/internal/channel/outbound"
	"github.com/linebridge/bridge/internal/logger"
	"github.com/linebridge/bridge/internal/metrics"
)

// RelayIDHeader carries the id correlating a delivery with its log lines.
const RelayIDHeader = "X-Relay-Id"

// PayloadNormalizer turns a Teams payload into canonical messages.
type PayloadNormalizer interface {
	Normalize(payload outbound.TeamsPayload, channelKey string) ([]channel.Message, channel.ChannelPair, error)
}

// FanoutDispatcher pushes messages to every recipient of a pair.
type FanoutDispatcher interface {
	Dispatch(ctx context.Context, pair channel.ChannelPair, messages []channel.Message) ([]channel.DispatchOutcome, error)
}

// TeamsWebhookHandler relays Teams flow posts to LINE.
type TeamsWebhookHandler struct {
	logger     *slog.Logger
	normalizer PayloadNormalizer
	dispatcher FanoutDispatcher
	metrics    *metrics.Metrics
}

func NewTeamsWebhookHandler(log *slog.Logger, normalizer PayloadNormalizer, dispatcher FanoutDispatcher, m *metrics.Metrics) *TeamsWebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TeamsWebhookHandler{
		logger:     log.With(slog.String("handler", "teams_webhook")),
		normalizer: normalizer,
		dispatcher: dispatcher,
		metrics:    m,
	}
}

func (h *TeamsWebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook/teams/:channel", h.Handle)
}

// Handle answers 200 "OK" once dispatch was attempted, whatever the
// per-recipient outcomes.
func (h *TeamsWebhookHandler) Handle(c echo.Context) (err error) {
	relayID := logger.NewRelayID()
	c.Response().Header().Set(RelayIDHeader, relayID)
	channelKey := strings.TrimSpace(c.Param("channel"))
	log := h.logger.With(slog.String("relay_id", relayID), slog.String("channel", channelKey))

	defer func() {
		if r := recover(); r != nil {
			log.Error("teams webhook panicked", slog.Any("panic", r))
			h.metrics.RelayEvent(metrics.DirectionOutbound, metrics.ResultFailed)
			err = c.String(http.StatusInternalServerError, "Server Error")
		}
	}()

	if h.normalizer == nil || h.dispatcher == nil {
		log.Error("teams webhook dependencies not configured")
		return c.String(http.StatusInternalServerError, "Server Error")
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, webhookMaxBodyBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
	}
	if int64(len(raw)) > webhookMaxBodyBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("payload too large: max %d bytes", webhookMaxBodyBytes))
	}
	var payload outbound.TeamsPayload
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			log.Warn("malformed teams payload", slog.Any("error", err))
			return echo.NewHTTPError(http.StatusBadRequest, "invalid json payload")
		}
	}

	messages, pair, err := h.normalizer.Normalize(payload, channelKey)
	if err != nil {
		if errors.Is(err, channel.ErrUnroutable) {
			log.Warn("unknown teams channel")
			h.metrics.RelayEvent(metrics.DirectionOutbound, metrics.ResultUnroutable)
			return echo.NewHTTPError(http.StatusBadRequest, "unknown channel")
		}
		log.Error("normalize teams payload failed", slog.Any("error", err))
		h.metrics.RelayEvent(metrics.DirectionOutbound, metrics.ResultFailed)
		return c.String(http.StatusInternalServerError, "Server Error")
	}

	ctx := logger.WithRelayID(c.Request().Context(), relayID)
	outcomes, err := h.dispatcher.Dispatch(ctx, pair, messages)
	if err != nil {
		log.Error("dispatch failed", slog.String("pair", pair.Key), slog.Any("error", err))
		h.metrics.RelayEvent(metrics.DirectionOutbound, metrics.ResultFailed)
		return c.String(http.StatusInternalServerError, "Server Error")
	}

	failed := channel.CountFailures(outcomes)
	log.Info("teams payload dispatched",
		slog.String("pair", pair.Key),
		slog.Int("messages", len(messages)),
		slog.Int("recipients", len(outcomes)),
		slog.Int("failed", failed),
	)
	result := metrics.ResultRelayed
	if failed > 0 {
		result = metrics.ResultFailed
	}
	h.metrics.RelayEvent(metrics.DirectionOutbound, result)
	return c.String(http.StatusOK, "OK")
}
