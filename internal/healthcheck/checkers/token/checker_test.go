package tokenchecker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/linebridge/bridge/internal/channel"
	"github.com/linebridge/bridge/internal/channel/adapters/line"
	"github.com/linebridge/bridge/internal/healthcheck"
)

type fakePairs []channel.ChannelPair

func (f fakePairs) List() []channel.ChannelPair { return f }

type fakeBotInfo map[string]error

func (f fakeBotInfo) BotInfo(_ context.Context, token string) (line.BotInfo, error) {
	if err := f[token]; err != nil {
		return line.BotInfo{}, err
	}
	return line.BotInfo{UserID: "U-" + token, BasicID: "@" + token}, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckerListChecks(t *testing.T) {
	t.Parallel()

	pairs := fakePairs{
		{Key: "1", Credential: "good", RecipientIDs: []string{"C1"}},
		{Key: "2", Credential: "expired", RecipientIDs: []string{"C2", "C3"}},
		{Key: "3", Credential: "offline", RecipientIDs: []string{"C4"}},
	}
	client := fakeBotInfo{
		"expired": &channel.UpstreamError{Platform: "line", Status: http.StatusUnauthorized, Body: "invalid token"},
		"offline": errors.New("dial tcp: timeout"),
	}
	items := NewChecker(newTestLogger(), pairs, client, nil).ListChecks(context.Background())
	if len(items) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(items))
	}

	if items[0].ID != "line.token.1" || items[0].Status != healthcheck.StatusOK {
		t.Fatalf("unexpected first check: %+v", items[0])
	}
	if items[0].Metadata["basic_id"] != "@good" {
		t.Fatalf("unexpected metadata: %+v", items[0].Metadata)
	}
	if items[1].Status != healthcheck.StatusError || items[1].Summary != "Channel access token is invalid or expired." {
		t.Fatalf("unexpected second check: %+v", items[1])
	}
	if items[1].Metadata["status"] != http.StatusUnauthorized {
		t.Fatalf("expected upstream status in metadata: %+v", items[1].Metadata)
	}
	if items[2].Status != healthcheck.StatusError || items[2].Summary != "Bot info request failed." {
		t.Fatalf("unexpected third check: %+v", items[2])
	}
	if items[2].CheckedAt.IsZero() {
		t.Fatalf("missing checked_at")
	}
}

func TestCheckerMissingDependencies(t *testing.T) {
	t.Parallel()

	items := NewChecker(newTestLogger(), nil, nil, nil).ListChecks(context.Background())
	if len(items) != 1 || items[0].Status != healthcheck.StatusWarn {
		t.Fatalf("expected service warning check, got %+v", items)
	}
}
