package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/linebridge/bridge/internal/channel"
	"github.com/linebridge/bridge/internal/channel/adapters/line"
	"github.com/linebridge/bridge/internal/config"
	"github.com/linebridge/bridge/internal/logger"
)

const (
	verifyProbeText      = "測試訊息 from verify-push"
	minRecipientIDLength = 10
)

type probePusher interface {
	Push(ctx context.Context, token, to string, messages []channel.Message) error
}

type botInfoFetcher interface {
	BotInfo(ctx context.Context, token string) (line.BotInfo, error)
}

func newVerifyPushCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-push",
		Short: "Push a probe message to every configured LINE recipient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, pairs, err := loadCLIClient(opts.configPath)
			if err != nil {
				return err
			}
			if failed := verifyPush(cmd.Context(), cmd.OutOrStdout(), client, pairs); failed > 0 {
				return fmt.Errorf("%d push(es) failed", failed)
			}
			return nil
		},
	}
}

func newValidateTokensCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-tokens",
		Short: "Check every configured LINE channel access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, pairs, err := loadCLIClient(opts.configPath)
			if err != nil {
				return err
			}
			if failed := validateTokens(cmd.Context(), cmd.OutOrStdout(), client, pairs); failed > 0 {
				return fmt.Errorf("%d token(s) invalid", failed)
			}
			return nil
		},
	}
}

func loadCLIClient(path string) (*line.Client, []channel.ChannelPair, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	pairs, err := config.LoadChannelPairs()
	if err != nil {
		return nil, nil, err
	}
	client := line.NewClient(logger.L, cfg.LINE.APIBaseURL, time.Duration(cfg.LINE.TimeoutSeconds)*time.Second)
	return client, config.ToChannelPairs(pairs), nil
}

// verifyPush returns the number of failed pushes.
func verifyPush(ctx context.Context, out io.Writer, client probePusher, pairs []channel.ChannelPair) int {
	if ctx == nil {
		ctx = context.Background()
	}
	failed := 0
	for _, pair := range pairs {
		for _, id := range pair.RecipientIDs {
			id = strings.TrimSpace(id)
			if len(id) < minRecipientIDLength {
				fmt.Fprintf(out, "pair %s: skip invalid recipient id %q\n", pair.Key, id)
				continue
			}
			err := client.Push(ctx, pair.Credential, id, []channel.Message{channel.TextMessage(verifyProbeText)})
			switch {
			case err == nil:
				fmt.Fprintf(out, "pair %s -> %s: ok\n", pair.Key, id)
			case isStatus(err, http.StatusUnauthorized):
				failed++
				fmt.Fprintf(out, "pair %s -> %s: 401 Unauthorized (token valid but not allowed to push to this recipient)\n", pair.Key, id)
			default:
				failed++
				fmt.Fprintf(out, "pair %s -> %s: failed: %v\n", pair.Key, id, err)
			}
		}
	}
	fmt.Fprintln(out, "verification finished")
	return failed
}

// validateTokens returns the number of rejected tokens.
func validateTokens(ctx context.Context, out io.Writer, client botInfoFetcher, pairs []channel.ChannelPair) int {
	if ctx == nil {
		ctx = context.Background()
	}
	failed := 0
	for _, pair := range pairs {
		info, err := client.BotInfo(ctx, pair.Credential)
		if err != nil {
			failed++
			fmt.Fprintf(out, "pair %s: invalid: %v\n", pair.Key, err)
			continue
		}
		fmt.Fprintf(out, "pair %s: valid (userId %s, basicId %s)\n", pair.Key, info.UserID, info.BasicID)
	}
	return failed
}

func isStatus(err error, status int) bool {
	var upstream *channel.UpstreamError
	return errors.As(err, &upstream) && upstream.Status == status
}
