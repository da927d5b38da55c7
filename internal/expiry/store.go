package expiry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// querier is the slice of pgxpool.Pool the store needs.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads inventory and group membership through the prepared statements
// registered by package db. It satisfies both FoodInventoryReader and
// GroupMembershipReader.
type Store struct {
	db querier
}

// NewStore returns a Store backed by db, typically a *pgxpool.Pool.
func NewStore(db querier) *Store {
	return &Store{db: db}
}

// ExpiringItems returns items whose expiry date lies in w, bounds included.
func (s *Store) ExpiringItems(ctx context.Context, w Window) ([]InventoryItem, error) {
	rows, err := s.db.Query(ctx, "expiring_inventory", w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("query expiring inventory: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(&it.ID, &it.ExpiryDate, &it.FoodName, &it.FridgeID, &it.GroupID); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read expiring inventory: %w", err)
	}
	return items, nil
}

// GroupMembers returns every member of groupID with their raw device tokens.
func (s *Store) GroupMembers(ctx context.Context, groupID string) ([]Member, error) {
	rows, err := s.db.Query(ctx, "group_member_tokens", groupID)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Tokens); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read group members: %w", err)
	}
	return members, nil
}
