package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/expiry"
)

type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, params *sns.CreatePlatformEndpointInput, optFns ...func(*sns.Options)) (*sns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender delivers through an SNS platform application backed by FCM.
// SNS has no multicast call, so each token gets its own endpoint and publish.
type SNSSender struct {
	client snsAPI
	appARN string
	logger *slog.Logger
}

// NewSNSSender creates an SNS sender for the given platform application.
func NewSNSSender(ctx context.Context, region, platformAppARN string, logger *slog.Logger) (*SNSSender, error) {
	if platformAppARN == "" {
		return nil, errors.New("SNS_PLATFORM_APPLICATION_ARN is required for the sns provider")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNSSender{client: sns.NewFromConfig(awsCfg), appARN: platformAppARN, logger: logger}, nil
}

// SendMulticast publishes msg to each token's platform endpoint. Failures are
// per token; the call itself only fails if the payload cannot be encoded.
func (s *SNSSender) SendMulticast(ctx context.Context, msg expiry.Message) (*expiry.BatchResponse, error) {
	payload, err := gcmEnvelope(msg)
	if err != nil {
		return nil, fmt.Errorf("encode sns payload: %w", err)
	}

	out := &expiry.BatchResponse{Responses: make([]expiry.SendResult, 0, len(msg.Tokens))}
	for _, tok := range msg.Tokens {
		out.Responses = append(out.Responses, s.publish(ctx, tok, payload))
	}
	return tally(out), nil
}

func (s *SNSSender) publish(ctx context.Context, token, payload string) expiry.SendResult {
	res := expiry.SendResult{Token: token}

	// CreatePlatformEndpoint is idempotent for an already registered token.
	ep, err := s.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(s.appARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		res.Err = fmt.Errorf("create platform endpoint: %w", err)
		return res
	}

	pub, err := s.client.Publish(ctx, &sns.PublishInput{
		MessageStructure: aws.String("json"),
		Message:          aws.String(payload),
		TargetArn:        ep.EndpointArn,
	})
	if err != nil {
		res.Err = fmt.Errorf("publish: %w", err)
		return res
	}
	res.Success = true
	res.MessageID = aws.ToString(pub.MessageId)
	return res
}

// gcmEnvelope builds the SNS JSON message. SNS expects the per-platform
// value to be a JSON document encoded as a string.
func gcmEnvelope(msg expiry.Message) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{
			"title": msg.Title,
			"body":  msg.Body,
		},
		"data": msg.Data,
	})
	if err != nil {
		return "", err
	}
	envelope, err := json.Marshal(map[string]string{
		"default": msg.Body,
		"GCM":     string(gcm),
	})
	if err != nil {
		return "", err
	}
	return string(envelope), nil
}
