package outbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/linebridge/bridge/internal/channel"
	"github.com/linebridge/bridge/internal/logger"
	"github.com/linebridge/bridge/internal/metrics"
)

// DefaultConcurrency bounds parallel pushes when none is configured.
const DefaultConcurrency = 4

var (
	ErrNoRecipients = errors.New("channel pair has no recipients")
	ErrNoMessages   = errors.New("no messages to dispatch")
)

// Pusher delivers a message sequence to one LINE recipient.
type Pusher interface {
	Push(ctx context.Context, token, to string, messages []channel.Message) error
}

// Dispatcher fans a message sequence out to every recipient of a pair.
type Dispatcher struct {
	pusher      Pusher
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(log *slog.Logger, pusher Pusher, concurrency int, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Dispatcher{
		pusher:      pusher,
		concurrency: concurrency,
		metrics:     m,
		logger:      log.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch pushes messages once to each recipient of pair. Recipients settle
// independently and outcomes come back in recipient order. The error is only
// set when nothing could be attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, pair channel.ChannelPair, messages []channel.Message) ([]channel.DispatchOutcome, error) {
	if len(pair.RecipientIDs) == 0 {
		return nil, ErrNoRecipients
	}
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	log := logger.FromContext(ctx, d.logger).With(slog.String("pair", pair.Key))

	outcomes := make([]channel.DispatchOutcome, len(pair.RecipientIDs))
	// Workers never return an error so one failed push cannot cancel the rest.
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, recipientID := range pair.RecipientIDs {
		g.Go(func() error {
			outcome := channel.DispatchOutcome{RecipientID: recipientID, Success: true}
			if err := d.push(ctx, pair.Credential, recipientID, messages); err != nil {
				outcome.Success = false
				outcome.Error = err.Error()
				log.Error("push failed", slog.String("recipient_id", recipientID), slog.Any("error", err))
			} else {
				log.Info("push delivered", slog.String("recipient_id", recipientID), slog.Int("messages", len(messages)))
			}
			d.metrics.DispatchOutcome(pair.Key, outcome.Success)
			outcomes[i] = outcome
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

func (d *Dispatcher) push(ctx context.Context, token, to string, messages []channel.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("push panic: %v", r)
		}
	}()
	return d.pusher.Push(ctx, token, to, messages)
}
