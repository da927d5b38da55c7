package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
)

// FCM accepts at most 500 tokens per multicast request.
const maxMulticastTokens = 500

// ErrMissingResponse marks a token FCM returned no result for.
var ErrMissingResponse = errors.New("fcm returned no response for token")

type multicastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMSender sends push notifications via Firebase Cloud Messaging.
type FCMSender struct {
	client multicastClient
	logger *slog.Logger
}

// NewFCMSender creates an FCM sender from a service account credentials file.
// projectID may be empty when the credentials carry it.
func NewFCMSender(ctx context.Context, credentialsFile, projectID string, logger *slog.Logger) (*FCMSender, error) {
	if credentialsFile == "" {
		return nil, errors.New("FIREBASE_CREDENTIALS_FILE is required for the fcm provider")
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &FCMSender{client: client, logger: logger}, nil
}

// SendMulticast sends msg to every token, in chunks of 500.
//
// A transport error on the first chunk is returned as is, since nothing has
// been delivered yet. A transport error on a later chunk marks that chunk's
// tokens as failed so the results for earlier chunks are not lost.
func (s *FCMSender) SendMulticast(ctx context.Context, msg expiry.Message) (*expiry.BatchResponse, error) {
	out := &expiry.BatchResponse{Responses: make([]expiry.SendResult, 0, len(msg.Tokens))}

	for start := 0; start < len(msg.Tokens); start += maxMulticastTokens {
		chunk := msg.Tokens[start:min(start+maxMulticastTokens, len(msg.Tokens))]

		resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: chunk,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data:    msg.Data,
			Android: &messaging.AndroidConfig{Priority: "high"},
		})
		if err != nil {
			if start == 0 {
				return nil, fmt.Errorf("fcm multicast: %w", err)
			}
			s.logger.Warn("FCM chunk failed", "offset", start, "tokens", len(chunk), "error", err)
			for _, tok := range chunk {
				out.Responses = append(out.Responses, expiry.SendResult{Token: tok, Err: err})
			}
			continue
		}

		for i, tok := range chunk {
			if i >= len(resp.Responses) || resp.Responses[i] == nil {
				out.Responses = append(out.Responses, expiry.SendResult{Token: tok, Err: ErrMissingResponse})
				continue
			}
			r := resp.Responses[i]
			out.Responses = append(out.Responses, expiry.SendResult{
				Token:     tok,
				Success:   r.Success,
				MessageID: r.MessageID,
				Err:       r.Error,
			})
		}
	}
	return tally(out), nil
}
