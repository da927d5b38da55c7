package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Dispatcher sends one multicast per member to all of that member's tokens.
// It never retries individual tokens and never deregisters them.
type Dispatcher struct {
	sender PushSender
	retry  RetryPolicy
	logger *slog.Logger
}

// MemberOutcome counts what happened for one member.
type MemberOutcome struct {
	Sent      bool // a multicast call was made
	Attempted int
	Succeeded int
	Failed    int
}

// NewDispatcher creates a Dispatcher. retry only applies to transport errors
// returned by the sender, never to per-token failures.
func NewDispatcher(sender PushSender, retry RetryPolicy, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, retry: retry, logger: logger}
}

// BuildMessage renders the expiry warning for item addressed to tokens.
func BuildMessage(item InventoryItem, tokens []string) Message {
	return Message{
		Tokens: tokens,
		Title:  notificationTitle,
		Body:   fmt.Sprintf(notificationBodyFmt, item.FoodName),
		Data: map[string]string{
			"type":       notificationType,
			"fridgeId":   item.FridgeID,
			"foodName":   item.FoodName,
			"groupId":    item.GroupID,
			"expiryDate": item.ExpiryDate.Format(time.RFC3339),
		},
	}
}

// Notify warns member about item. Failures are logged and counted; nothing
// escapes to the caller.
func (d *Dispatcher) Notify(ctx context.Context, item InventoryItem, member Member) (out MemberOutcome) {
	tokens := CleanTokens(member.Tokens)
	if len(tokens) == 0 {
		d.logger.Info("Skipping member without device tokens",
			"user_id", member.UserID, "item_id", item.ID)
		return out
	}

	out.Sent = true
	out.Attempted = len(tokens)

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Push sender panicked",
				"user_id", member.UserID, "item_id", item.ID, "panic", r)
			out.Succeeded = 0
			out.Failed = len(tokens)
		}
	}()

	msg := BuildMessage(item, tokens)
	var resp *BatchResponse
	err := d.retry.Do(ctx, func() error {
		var sendErr error
		resp, sendErr = d.sender.SendMulticast(ctx, msg)
		if sendErr == nil && resp == nil {
			sendErr = ErrEmptyResponse
		}
		return sendErr
	})
	if err != nil {
		d.logger.Error("Multicast send failed",
			"user_id", member.UserID, "item_id", item.ID, "tokens", len(tokens), "error", err)
		out.Failed = len(tokens)
		return out
	}

	for i, r := range resp.Responses {
		if r.Success {
			out.Succeeded++
			continue
		}
		out.Failed++
		token := r.Token
		if token == "" && i < len(tokens) {
			token = tokens[i]
		}
		d.logger.Warn("Push delivery failed",
			"user_id", member.UserID, "token", maskToken(token), "error", r.Err)
	}

	d.logger.Info("Expiry notification sent",
		"user_id", member.UserID,
		"item_id", item.ID,
		"food", item.FoodName,
		"success", out.Succeeded,
		"total", len(tokens))
	return out
}
