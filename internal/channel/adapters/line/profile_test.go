package line

import (
	"context"
	"errors"
	"testing"

	"github.com/linebridge/bridge/internal/channel"
)

type fakeProfiles struct {
	profile Profile
	err     error
	token   string
}

func (f *fakeProfiles) Profile(_ context.Context, token string, _ channel.MessageSource) (Profile, error) {
	f.token = token
	return f.profile, f.err
}

func TestResolveUsername(t *testing.T) {
	t.Parallel()

	pair := channel.ChannelPair{Key: "1", Credential: "tok-1"}
	source := channel.MessageSource{Kind: channel.SourceGroup, GroupID: "C1", UserID: "U1"}

	tests := []struct {
		name    string
		fetcher *fakeProfiles
		source  channel.MessageSource
		want    string
	}{
		{"resolved", &fakeProfiles{profile: Profile{DisplayName: " Alice "}}, source, "Alice"},
		{"lookup error", &fakeProfiles{err: errors.New("boom")}, source, UnknownUser},
		{"blank name", &fakeProfiles{profile: Profile{DisplayName: "  "}}, source, UnknownUser},
		{"no user id", &fakeProfiles{profile: Profile{DisplayName: "Alice"}}, channel.MessageSource{Kind: channel.SourceGroup, GroupID: "C1"}, UnknownUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewProfileResolver(nil, tt.fetcher)
			if got := r.ResolveUsername(context.Background(), tt.source, pair); got != tt.want {
				t.Fatalf("ResolveUsername = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveUsernameUsesPairCredential(t *testing.T) {
	t.Parallel()

	f := &fakeProfiles{profile: Profile{DisplayName: "Bob"}}
	NewProfileResolver(nil, f).ResolveUsername(context.Background(), channel.MessageSource{Kind: channel.SourceUser, UserID: "U1"}, channel.ChannelPair{Credential: "tok-7"})
	if f.token != "tok-7" {
		t.Fatalf("credential = %q, want tok-7", f.token)
	}
}

func TestResolveUsernameNilResolver(t *testing.T) {
	t.Parallel()

	var r *ProfileResolver
	if got := r.ResolveUsername(context.Background(), channel.MessageSource{UserID: "U1"}, channel.ChannelPair{}); got != UnknownUser {
		t.Fatalf("got %q", got)
	}
}
