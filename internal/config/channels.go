package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/linebridge/bridge/internal/channel"
)

// ErrNoChannelPairs is returned when the environment configures no pair at all.
var ErrNoChannelPairs = errors.New("no channel pairs configured")

// Variable stems; indexed pairs append "_<n>".
const (
	EnvAccessToken  = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvRecipientIDs = "LINE_GROUP_IDS"
	EnvWebhookURL   = "TEAMS_WEBHOOK_URL"

	// EnvLegacyRecipientID is the single-group variable of the unindexed layout.
	EnvLegacyRecipientID = "LINE_GROUP_ID"
)

// ChannelPairConfig is one credential / recipient list / endpoint triple.
type ChannelPairConfig struct {
	Index        int
	AccessToken  string   `env:"LINE_CHANNEL_ACCESS_TOKEN,required,notEmpty"`
	RecipientIDs []string `env:"LINE_GROUP_IDS,required,notEmpty" envSeparator:","`
	WebhookURL   string   `env:"TEAMS_WEBHOOK_URL,required,notEmpty"`
}

// ChannelPair converts c into the routing type keyed by its index.
func (c ChannelPairConfig) ChannelPair() channel.ChannelPair {
	return channel.ChannelPair{
		Key:                 strconv.Itoa(c.Index),
		Credential:          c.AccessToken,
		RecipientIDs:        append([]string(nil), c.RecipientIDs...),
		CounterpartEndpoint: c.WebhookURL,
	}
}

// ToChannelPairs converts every config, keeping order.
func ToChannelPairs(cfgs []ChannelPairConfig) []channel.ChannelPair {
	pairs := make([]channel.ChannelPair, 0, len(cfgs))
	for _, c := range cfgs {
		pairs = append(pairs, c.ChannelPair())
	}
	return pairs
}

// LoadChannelPairs reads pairs from the process environment.
func LoadChannelPairs() ([]ChannelPairConfig, error) {
	return LoadChannelPairsFrom(env.ToMap(os.Environ()))
}

// LoadChannelPairsFrom reads pairs 1..n from vars, stopping at the first index
// that sets none of the three variables. An index that sets only some of them
// is an error. When no indexed pair exists the legacy unindexed layout is tried.
func LoadChannelPairsFrom(vars map[string]string) ([]ChannelPairConfig, error) {
	pairs := make([]ChannelPairConfig, 0)
	for n := 1; ; n++ {
		suffix := "_" + strconv.Itoa(n)
		scoped := map[string]string{}
		for _, stem := range []string{EnvAccessToken, EnvRecipientIDs, EnvWebhookURL} {
			if value, ok := vars[stem+suffix]; ok {
				scoped[stem] = value
			}
		}
		if len(scoped) == 0 {
			break
		}
		pair, err := parsePair(n, scoped)
		if err != nil {
			return nil, fmt.Errorf("channel pair %d: %w", n, err)
		}
		pairs = append(pairs, pair)
	}
	if len(pairs) > 0 {
		return pairs, nil
	}

	legacy := map[string]string{}
	if value, ok := vars[EnvAccessToken]; ok {
		legacy[EnvAccessToken] = value
	}
	if value, ok := vars[EnvLegacyRecipientID]; ok {
		legacy[EnvRecipientIDs] = value
	}
	if value, ok := vars[EnvWebhookURL]; ok {
		legacy[EnvWebhookURL] = value
	}
	if len(legacy) == 0 {
		return nil, ErrNoChannelPairs
	}
	pair, err := parsePair(1, legacy)
	if err != nil {
		return nil, fmt.Errorf("channel pair (legacy): %w", err)
	}
	return []ChannelPairConfig{pair}, nil
}

func parsePair(index int, scoped map[string]string) (ChannelPairConfig, error) {
	var pair ChannelPairConfig
	if err := env.ParseWithOptions(&pair, env.Options{Environment: scoped}); err != nil {
		return ChannelPairConfig{}, err
	}
	pair.Index = index
	pair.AccessToken = strings.TrimSpace(pair.AccessToken)
	pair.WebhookURL = strings.TrimSpace(pair.WebhookURL)
	ids := make([]string, 0, len(pair.RecipientIDs))
	seen := map[string]struct{}{}
	for _, id := range pair.RecipientIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ChannelPairConfig{}, fmt.Errorf("%s has no recipient ids", EnvRecipientIDs)
	}
	pair.RecipientIDs = ids
	if pair.AccessToken == "" || pair.WebhookURL == "" {
		return ChannelPairConfig{}, fmt.Errorf("%s and %s must not be blank", EnvAccessToken, EnvWebhookURL)
	}
	return pair, nil
}
