// Package expiry warns households about food that is about to go off.
//
// Pass: compute the expiry window → fetch fridge items expiring inside it →
// resolve the members of each item's group and their device tokens → send one
// multicast push per member. A cron scheduler fires a pass on a fixed cadence
// (every 2 minutes by default). Nothing is carried over between passes.
package expiry

import (
	"context"
	"errors"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	notificationTitle   = "Thực phẩm sắp hết hạn"
	notificationBodyFmt = "%s trong tủ lạnh của bạn sắp hết hạn. Hãy sử dụng sớm nhé!"
	notificationType    = "EXPIRY_WARNING"
)

var (
	// ErrPassPanicked is recorded on a PassResult when a pass was cut short by a panic.
	ErrPassPanicked = errors.New("expiry pass panicked")
	// ErrEmptyResponse is returned when a sender reports neither results nor an error.
	ErrEmptyResponse = errors.New("push sender returned no response")
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// InventoryItem is a fridge item expiring inside the current window, joined
// with its food name and owning fridge/group.
type InventoryItem struct {
	ID         string
	ExpiryDate time.Time
	FoodName   string
	FridgeID   string
	GroupID    string // "" when the fridge has no resolvable group
}

// Member is a group member with their device tokens as stored.
type Member struct {
	UserID string
	Tokens []string
}

// Message is one multicast request: the same notification to every token.
type Message struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// SendResult is the delivery outcome for a single token.
type SendResult struct {
	Token     string
	Success   bool
	MessageID string
	Err       error
}

// BatchResponse holds one SendResult per token of a multicast request.
type BatchResponse struct {
	Responses    []SendResult
	SuccessCount int
	FailureCount int
}

// PassResult summarises one notification pass.
type PassResult struct {
	RunID           string
	StartedAt       time.Time
	Window          Window
	ItemsFound      int
	ItemsSkipped    int
	Multicasts      int
	TokensAttempted int
	TokensSucceeded int
	TokensFailed    int
	Duration        time.Duration
	Err             error
}

// --------------------------------------------------------------------------
// Collaborators
// --------------------------------------------------------------------------

// FoodInventoryReader fetches inventory rows expiring inside a window.
type FoodInventoryReader interface {
	ExpiringItems(ctx context.Context, w Window) ([]InventoryItem, error)
}

// GroupMembershipReader resolves a group's members with their device tokens.
type GroupMembershipReader interface {
	GroupMembers(ctx context.Context, groupID string) ([]Member, error)
}

// PushSender delivers a multicast notification and reports per-token results.
type PushSender interface {
	SendMulticast(ctx context.Context, msg Message) (*BatchResponse, error)
}
