package channel

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Registry is the fixed, ordered table of channel pairs. It is built once at
// startup via NewRegistry and passed explicitly to every component that
// routes; it is never mutated afterwards, so lookups need no locking.
type Registry struct {
	pairs []ChannelPair
	byKey map[string]int
}

// NewRegistry validates pairs and builds the lookup table. Order is kept.
func NewRegistry(pairs []ChannelPair) (*Registry, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one channel pair is required")
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	r := &Registry{
		pairs: make([]ChannelPair, 0, len(pairs)),
		byKey: make(map[string]int, len(pairs)),
	}
	for i, pair := range pairs {
		pair.Key = strings.TrimSpace(pair.Key)
		pair.RecipientIDs = append([]string(nil), pair.RecipientIDs...)
		if err := validate.Struct(pair); err != nil {
			return nil, fmt.Errorf("channel pair %d: %w", i+1, err)
		}
		if _, exists := r.byKey[pair.Key]; exists {
			return nil, fmt.Errorf("channel pair key already registered: %s", pair.Key)
		}
		r.byKey[pair.Key] = len(r.pairs)
		r.pairs = append(r.pairs, pair)
	}
	return r, nil
}

// ResolveByRecipient returns the first pair listing recipientID. A recipient
// no pair lists is unroutable; there is no fallback pair.
func (r *Registry) ResolveByRecipient(recipientID string) (ChannelPair, bool) {
	if r == nil {
		return ChannelPair{}, false
	}
	for _, pair := range r.pairs {
		if pair.HasRecipient(recipientID) {
			return pair, true
		}
	}
	return ChannelPair{}, false
}

// ResolveByChannelKey returns the pair registered under key.
func (r *Registry) ResolveByChannelKey(key string) (ChannelPair, bool) {
	if r == nil {
		return ChannelPair{}, false
	}
	idx, ok := r.byKey[strings.TrimSpace(key)]
	if !ok {
		return ChannelPair{}, false
	}
	return r.pairs[idx], true
}

// List returns the pairs in configured order.
func (r *Registry) List() []ChannelPair {
	if r == nil {
		return nil
	}
	items := make([]ChannelPair, len(r.pairs))
	copy(items, r.pairs)
	return items
}

// Len returns the number of configured pairs.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.pairs)
}
