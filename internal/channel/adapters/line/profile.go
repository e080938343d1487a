package line

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/linebridge/bridge/internal/channel"
)

// UnknownUser is the name used when a sender profile cannot be resolved.
const UnknownUser = "unknown user"

const profileLookupTimeout = 5 * time.Second

type profileFetcher interface {
	Profile(ctx context.Context, token string, source channel.MessageSource) (Profile, error)
}

// ProfileResolver resolves sender display names on a best-effort basis.
type ProfileResolver struct {
	client profileFetcher
	logger *slog.Logger
}

// NewProfileResolver wraps a profile-capable client.
func NewProfileResolver(log *slog.Logger, client profileFetcher) *ProfileResolver {
	if log == nil {
		log = slog.Default()
	}
	return &ProfileResolver{
		client: client,
		logger: log.With(slog.String("component", "line_profile")),
	}
}

// ResolveUsername returns the display name of the sender of source using the
// pair's credential. Any failure yields UnknownUser.
func (r *ProfileResolver) ResolveUsername(ctx context.Context, source channel.MessageSource, pair channel.ChannelPair) string {
	if r == nil || r.client == nil || strings.TrimSpace(source.UserID) == "" {
		return UnknownUser
	}
	lookupCtx, cancel := context.WithTimeout(ctx, profileLookupTimeout)
	defer cancel()

	profile, err := r.client.Profile(lookupCtx, pair.Credential, source)
	if err != nil {
		r.logger.Debug("resolve sender profile failed",
			slog.String("pair", pair.Key),
			slog.String("user_id", source.UserID),
			slog.Any("error", err),
		)
		return UnknownUser
	}
	name := strings.TrimSpace(profile.DisplayName)
	if name == "" {
		return UnknownUser
	}
	return name
}
