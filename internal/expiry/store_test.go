package expiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestStore_ExpiringItems(t *testing.T) {
	store, mock := newMockStore(t)
	w := ComputeWindow(fixedNow(), time.UTC)
	expires := time.Date(2024, 1, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery("expiring_inventory").
		WithArgs(w.Start, w.End).
		WillReturnRows(pgxmock.NewRows([]string{"id", "expirydate", "name", "fridge_id", "group_id"}).
			AddRow("item-1", expires, "Sữa chua", "fridge-1", "group-1").
			AddRow("item-2", expires, "Rau muống", "fridge-2", ""))

	items, err := store.ExpiringItems(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, InventoryItem{
		ID: "item-1", ExpiryDate: expires, FoodName: "Sữa chua", FridgeID: "fridge-1", GroupID: "group-1",
	}, items[0])
	assert.Empty(t, items[1].GroupID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ExpiringItemsQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	w := ComputeWindow(fixedNow(), time.UTC)

	mock.ExpectQuery("expiring_inventory").
		WithArgs(w.Start, w.End).
		WillReturnError(errors.New("relation \"fridge_items\" does not exist"))

	_, err := store.ExpiringItems(context.Background(), w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query expiring inventory")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GroupMembers(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("group_member_tokens").
		WithArgs("group-1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "tokens"}).
			AddRow("user-1", []string{"a", "null", "b"}).
			AddRow("user-2", []string{}))

	members, err := store.GroupMembers(context.Background(), "group-1")
	require.NoError(t, err)
	assert.Equal(t, []Member{
		{UserID: "user-1", Tokens: []string{"a", "null", "b"}},
		{UserID: "user-2", Tokens: []string{}},
	}, members)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GroupMembersQueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("group_member_tokens").
		WithArgs("group-1").
		WillReturnError(context.DeadlineExceeded)

	_, err := store.GroupMembers(context.Background(), "group-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
