package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/notification/domain"
	"github.com/smallbiznis/zyra/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Notification{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	return New(Params{DB: conn, Log: zap.NewNop(), GenID: node, Clock: clk}), clk
}

func TestNotificationLifecycle(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()
	userID := snowflake.ID(1)

	var ids []string
	for _, title := range []string{"Welcome", "Stock low", "Invoice paid"} {
		n, err := svc.Create(ctx, userID, domain.CreateRequest{Title: title})
		require.NoError(t, err)
		assert.Equal(t, domain.TypeInfo, n.Type)
		ids = append(ids, n.ID.String())
		clk.Advance(time.Minute)
	}
	_, err := svc.Create(ctx, snowflake.ID(2), domain.CreateRequest{Title: "Other user"})
	require.NoError(t, err)

	list, err := svc.List(ctx, userID, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "Invoice paid", list.Items[0].Title)
	assert.EqualValues(t, 3, list.UnreadCount)

	n, err := svc.SetRead(ctx, userID, ids[0], true)
	require.NoError(t, err)
	assert.True(t, n.Read)
	require.NotNil(t, n.ReadAt)

	unread, err := svc.List(ctx, userID, domain.ListRequest{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread.Items, 2)
	assert.EqualValues(t, 2, unread.UnreadCount)

	n, err = svc.SetRead(ctx, userID, ids[0], false)
	require.NoError(t, err)
	assert.False(t, n.Read)
	assert.Nil(t, n.ReadAt)

	updated, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	list, err = svc.List(ctx, userID, domain.ListRequest{})
	require.NoError(t, err)
	assert.Zero(t, list.UnreadCount)

	require.NoError(t, svc.Delete(ctx, userID, ids[1]))
	list, err = svc.List(ctx, userID, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	other, err := svc.List(ctx, snowflake.ID(2), domain.ListRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, other.UnreadCount)
}

func TestNotificationValidationAndOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, domain.CreateRequest{Title: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)
	_, err = svc.Create(ctx, 1, domain.CreateRequest{Title: "x", Type: "shout"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	n, err := svc.Create(ctx, 1, domain.CreateRequest{Title: "mine", Type: "Warning"})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeWarning, n.Type)

	_, err = svc.SetRead(ctx, 2, n.ID.String(), true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, n.ID.String()), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 1, "abc"), domain.ErrInvalidID)
}
