// Package inbound relays LINE webhook events to the Teams endpoint of the
// channel pair owning the conversation.
package inbound

import (
	"context"
	"log/slog"

	"github.com/linebridge/bridge/internal/channel"
	"github.com/linebridge/bridge/internal/channel/adapters/line"
	"github.com/linebridge/bridge/internal/logger"
	"github.com/linebridge/bridge/internal/metrics"
)

// RecipientResolver finds the pair owning a LINE recipient id.
type RecipientResolver interface {
	ResolveByRecipient(id string) (channel.ChannelPair, bool)
}

// UsernameResolver names the sender of an event.
type UsernameResolver interface {
	ResolveUsername(ctx context.Context, source channel.MessageSource, pair channel.ChannelPair) string
}

// TextPoster delivers relayed text to a Teams endpoint.
type TextPoster interface {
	PostText(ctx context.Context, endpoint, text string) error
}

// Processor relays text message events one at a time, in batch order.
type Processor struct {
	registry RecipientResolver
	names    UsernameResolver
	poster   TextPoster
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewProcessor creates a Processor. m may be nil.
func NewProcessor(log *slog.Logger, registry RecipientResolver, names UsernameResolver, poster TextPoster, m *metrics.Metrics) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		registry: registry,
		names:    names,
		poster:   poster,
		metrics:  m,
		logger:   log.With(slog.String("component", "inbound")),
	}
}

// FormatRelayText renders the text posted to Teams for one LINE message.
func FormatRelayText(username, text string) string {
	return "from " + username + ": " + text
}

// Handle processes every event of batch. A failing event is logged and
// counted; the rest of the batch still runs.
func (p *Processor) Handle(ctx context.Context, batch line.WebhookBatch) {
	log := logger.FromContext(ctx, p.logger)
	for i, event := range batch.Events {
		p.handleEvent(ctx, log.With(slog.Int("event", i)), event)
	}
}

func (p *Processor) handleEvent(ctx context.Context, log *slog.Logger, event line.Event) {
	text, ok := event.TextContent()
	if !ok {
		messageType := ""
		if event.Message != nil {
			messageType = event.Message.Type
		}
		log.Debug("ignore non-text event", slog.String("type", event.Type), slog.String("message_type", messageType))
		p.metrics.RelayEvent(metrics.DirectionInbound, metrics.ResultIgnored)
		return
	}

	recipientID := event.Source.RecipientID()
	pair, ok := p.registry.ResolveByRecipient(recipientID)
	if !ok {
		log.Warn("no channel pair for recipient", slog.String("recipient_id", recipientID))
		p.metrics.RelayEvent(metrics.DirectionInbound, metrics.ResultUnroutable)
		return
	}

	username := p.names.ResolveUsername(ctx, event.Source, pair)
	if err := p.poster.PostText(ctx, pair.CounterpartEndpoint, FormatRelayText(username, text)); err != nil {
		log.Error("relay to teams failed",
			slog.String("pair", pair.Key),
			slog.String("recipient_id", recipientID),
			slog.Any("error", err),
		)
		p.metrics.RelayEvent(metrics.DirectionInbound, metrics.ResultFailed)
		return
	}
	log.Info("relayed line message",
		slog.String("pair", pair.Key),
		slog.String("recipient_id", recipientID),
	)
	p.metrics.RelayEvent(metrics.DirectionInbound, metrics.ResultRelayed)
}
