package expiry

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// JobConfig wires a Job's collaborators.
type JobConfig struct {
	Items    FoodInventoryReader
	Members  GroupMembershipReader
	Sender   PushSender
	Retry    RetryPolicy
	Location *time.Location // date arithmetic for the window; nil = UTC
	Logger   *slog.Logger
	Now      func() time.Time // nil = time.Now
}

// Job runs expiry notification passes. Passes share no state except the
// last recorded PassResult, which is kept for observation only.
type Job struct {
	items      FoodInventoryReader
	members    GroupMembershipReader
	dispatcher *Dispatcher
	retry      RetryPolicy
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger

	mu   sync.Mutex
	last *PassResult
}

// NewJob creates a Job from cfg.
func NewJob(cfg JobConfig) *Job {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Job{
		items:      cfg.Items,
		members:    cfg.Members,
		dispatcher: NewDispatcher(cfg.Sender, cfg.Retry, logger),
		retry:      cfg.Retry,
		loc:        loc,
		now:        now,
		logger:     logger,
	}
}

// Window returns the window a pass started at t would use.
func (j *Job) Window(t time.Time) Window {
	return ComputeWindow(t, j.loc)
}

// Last returns the most recent pass result, if any pass has run.
func (j *Job) Last() (PassResult, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return PassResult{}, false
	}
	return *j.last, true
}

// Run performs one pass. It never panics and never returns an error to the
// caller: a failed expiry query aborts the pass and is reported on
// PassResult.Err, per-item and per-member failures are logged and skipped.
func (j *Job) Run(ctx context.Context) (res PassResult) {
	began := time.Now()
	res.StartedAt = j.now()
	res.RunID = ulid.MustNew(ulid.Now(), rand.Reader).String()
	logger := j.logger.With("run_id", res.RunID)

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: %v", ErrPassPanicked, r)
			logger.Error("Expiry pass panicked", "panic", r, "stack", string(debug.Stack()))
		}
		res.Duration = time.Since(began)
		j.record(res)
	}()

	logger.Info("Expiry notification pass started")

	w := ComputeWindow(res.StartedAt, j.loc)
	res.Window = w
	logger.Info("Expiry window",
		"start", w.Start.Format(time.DateTime),
		"end", w.End.Format(time.DateTime),
		"tz", j.loc.String())

	var items []InventoryItem
	err := j.retry.Do(ctx, func() error {
		var qErr error
		items, qErr = j.items.ExpiringItems(ctx, w)
		return qErr
	})
	if err != nil {
		res.Err = fmt.Errorf("fetch expiring items: %w", err)
		logger.Error("Failed to fetch expiring items", "error", err)
		return res
	}
	res.ItemsFound = len(items)
	logger.Info("Found expiring items", "count", len(items))

	for _, item := range items {
		j.notifyItem(ctx, logger, item, &res)
	}

	logger.Info("Expiry notification pass finished",
		"items", res.ItemsFound,
		"skipped", res.ItemsSkipped,
		"multicasts", res.Multicasts,
		"tokens_ok", res.TokensSucceeded,
		"tokens_failed", res.TokensFailed,
		"duration", time.Since(began).Round(time.Millisecond))
	return res
}

// notifyItem fans one item out to its group's members, sequentially.
func (j *Job) notifyItem(ctx context.Context, logger *slog.Logger, item InventoryItem, res *PassResult) {
	if item.GroupID == "" {
		res.ItemsSkipped++
		logger.Warn("Skipping item without group", "item_id", item.ID, "fridge_id", item.FridgeID)
		return
	}

	var members []Member
	err := j.retry.Do(ctx, func() error {
		var mErr error
		members, mErr = j.members.GroupMembers(ctx, item.GroupID)
		return mErr
	})
	if err != nil {
		res.ItemsSkipped++
		logger.Warn("Failed to resolve group members",
			"item_id", item.ID, "group_id", item.GroupID, "error", err)
		return
	}
	if len(members) == 0 {
		logger.Warn("No members in group", "group_id", item.GroupID, "item_id", item.ID)
		return
	}

	for _, m := range members {
		out := j.dispatcher.Notify(ctx, item, m)
		if out.Sent {
			res.Multicasts++
		}
		res.TokensAttempted += out.Attempted
		res.TokensSucceeded += out.Succeeded
		res.TokensFailed += out.Failed
	}
}

func (j *Job) record(res PassResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.last = &res
}
