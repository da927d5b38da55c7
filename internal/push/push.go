// Package push implements expiry.PushSender for the supported delivery
// providers: Firebase Cloud Messaging, AWS SNS mobile push, and a log-only
// sender for development.
package push

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/config"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
)

// New returns the sender selected by cfg.PushProvider.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (expiry.PushSender, error) {
	switch cfg.PushProvider {
	case config.PushProviderFCM:
		s, err := NewFCMSender(ctx, cfg.FCMCredentialsFile, cfg.FCMProjectID, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.PushProviderSNS:
		s, err := NewSNSSender(ctx, cfg.AWSRegion, cfg.SNSPlatformApplicationARN, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.PushProviderLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.PushProvider)
	}
}

// tally fills in the success/failure counts from the per-token results.
func tally(resp *expiry.BatchResponse) *expiry.BatchResponse {
	resp.SuccessCount, resp.FailureCount = 0, 0
	for _, r := range resp.Responses {
		if r.Success {
			resp.SuccessCount++
		} else {
			resp.FailureCount++
		}
	}
	return resp
}
