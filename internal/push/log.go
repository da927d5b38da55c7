package push

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
)

// LogSender logs each multicast instead of delivering it and reports every
// token as delivered. Used when no push credentials are configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendMulticast(_ context.Context, msg expiry.Message) (*expiry.BatchResponse, error) {
	s.logger.Info("Push send (log provider)",
		"tokens", len(msg.Tokens), "title", msg.Title, "body", msg.Body, "data", msg.Data)

	out := &expiry.BatchResponse{Responses: make([]expiry.SendResult, 0, len(msg.Tokens))}
	for i, tok := range msg.Tokens {
		out.Responses = append(out.Responses, expiry.SendResult{
			Token:     tok,
			Success:   true,
			MessageID: fmt.Sprintf("log-%d", i),
		})
	}
	return tally(out), nil
}
