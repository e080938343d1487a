package tokenchecker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/linebridge/bridge/internal/channel"
	"github.com/linebridge/bridge/internal/channel/adapters/line"
	"github.com/linebridge/bridge/internal/healthcheck"
	"github.com/linebridge/bridge/internal/metrics"
)

const checkTypeToken = "line.token"

// PairLister lists the configured channel pairs.
type PairLister interface {
	List() []channel.ChannelPair
}

// BotInfoFetcher validates a channel access token.
type BotInfoFetcher interface {
	BotInfo(ctx context.Context, token string) (line.BotInfo, error)
}

// Checker validates the LINE access token of every channel pair.
type Checker struct {
	logger  *slog.Logger
	pairs   PairLister
	client  BotInfoFetcher
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewChecker creates a token health checker. m may be nil.
func NewChecker(log *slog.Logger, pairs PairLister, client BotInfoFetcher, m *metrics.Metrics) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger:  log.With(slog.String("checker", "healthcheck_token")),
		pairs:   pairs,
		client:  client,
		metrics: m,
		now:     time.Now,
	}
}

// ListChecks calls bot info once per pair, in pair order.
func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.pairs == nil || c.client == nil {
		return []healthcheck.CheckResult{
			{
				ID:        checkTypeToken + ".service",
				Type:      checkTypeToken,
				Status:    healthcheck.StatusWarn,
				Summary:   "Token checker is not available.",
				CheckedAt: c.now().UTC(),
			},
		}
	}

	pairs := c.pairs.List()
	checks := make([]healthcheck.CheckResult, 0, len(pairs))
	for _, pair := range pairs {
		checks = append(checks, c.check(ctx, pair))
	}
	return checks
}

func (c *Checker) check(ctx context.Context, pair channel.ChannelPair) healthcheck.CheckResult {
	item := healthcheck.CheckResult{
		ID:       checkTypeToken + "." + pair.Key,
		Type:     checkTypeToken,
		Subtitle: "channel pair " + pair.Key,
		Metadata: map[string]any{
			"recipients": len(pair.RecipientIDs),
		},
	}
	info, err := c.client.BotInfo(ctx, pair.Credential)
	item.CheckedAt = c.now().UTC()
	if err != nil {
		item.Status = healthcheck.StatusError
		item.Summary = "Channel access token rejected."
		item.Detail = err.Error()
		var upstream *channel.UpstreamError
		if errors.As(err, &upstream) {
			item.Metadata["status"] = upstream.Status
			if upstream.Status == http.StatusUnauthorized {
				item.Summary = "Channel access token is invalid or expired."
			}
		} else {
			item.Summary = "Bot info request failed."
		}
		c.logger.Warn("token check failed", slog.String("pair", pair.Key), slog.Any("error", err))
		c.metrics.TokenValid(pair.Key, false)
		return item
	}
	item.Status = healthcheck.StatusOK
	item.Summary = fmt.Sprintf("Token valid for bot %s.", info.BasicID)
	item.Metadata["user_id"] = info.UserID
	item.Metadata["basic_id"] = info.BasicID
	if info.DisplayName != "" {
		item.Metadata["display_name"] = info.DisplayName
	}
	c.metrics.TokenValid(pair.Key, true)
	return item
}
