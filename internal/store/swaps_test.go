package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/model"
)

func TestPointsRedemptionSettles(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := mustUser(t, database, "a@example.com")
	b := mustUser(t, database, "b@example.com")
	setPoints(t, database, b.ID, 200)
	x := mustItem(t, database, a.ID, itemInput("Jacket X", 80), true)

	swap, err := CreateSwap(ctx, database, b.ID, model.SwapRequest{
		OwnerItemID: x.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(90),
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, swap.OwnerID)
	assert.Equal(t, model.SwapStatusPending, swap.Status)
	assert.Equal(t, "Jacket X", swap.OwnerItemTitle)

	swap, err = TransitionSwap(ctx, database, swap.ID, a.ID, model.SwapStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusAccepted, swap.Status)

	assert.Equal(t, 190, pointsOf(t, database, a.ID))
	assert.Equal(t, 110, pointsOf(t, database, b.ID))
	assert.Equal(t, model.ItemStatusSwapped, statusOf(t, database, x.ID))
	assert.Equal(t, 300, pointsOf(t, database, a.ID)+pointsOf(t, database, b.ID))

	swap, err = TransitionSwap(ctx, database, swap.ID, a.ID, model.SwapStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusCompleted, swap.Status)
	assert.Equal(t, 190, pointsOf(t, database, a.ID))
}

func TestDirectSwapMarksBothItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	requester := mustUser(t, database, "req@example.com")
	wanted := mustItem(t, database, owner.ID, itemInput("Wool coat", 150), true)
	offered := mustItem(t, database, requester.ID, itemInput("Parka", 140), true)

	swap, err := CreateSwap(ctx, database, requester.ID, model.SwapRequest{
		OwnerItemID: wanted.ID, RequesterItemID: idPtr(offered.ID), Type: model.SwapTypeDirect, Message: "Trade?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Parka", swap.RequesterItemTitle)

	_, err = TransitionSwap(ctx, database, swap.ID, owner.ID, model.SwapStatusAccepted)
	require.NoError(t, err)

	assert.Equal(t, model.ItemStatusSwapped, statusOf(t, database, wanted.ID))
	assert.Equal(t, model.ItemStatusSwapped, statusOf(t, database, offered.ID))
	assert.Equal(t, model.DefaultPoints, pointsOf(t, database, owner.ID))
	assert.Equal(t, model.DefaultPoints, pointsOf(t, database, requester.ID))
}

func TestRejectLeavesItemsAlone(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	requester := mustUser(t, database, "req@example.com")
	item := mustItem(t, database, owner.ID, itemInput("Cap", 20), true)

	swap, err := CreateSwap(ctx, database, requester.ID, model.SwapRequest{
		OwnerItemID: item.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(20),
	})
	require.NoError(t, err)

	swap, err = TransitionSwap(ctx, database, swap.ID, owner.ID, model.SwapStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusRejected, swap.Status)
	assert.Equal(t, model.ItemStatusActive, statusOf(t, database, item.ID))
	assert.Equal(t, model.DefaultPoints, pointsOf(t, database, requester.ID))

	_, err = TransitionSwap(ctx, database, swap.ID, owner.ID, model.SwapStatusCompleted)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestTransitionByNonOwnerChangesNothing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	requester := mustUser(t, database, "req@example.com")
	item := mustItem(t, database, owner.ID, itemInput("Tee", 50), true)

	swap, err := CreateSwap(ctx, database, requester.ID, model.SwapRequest{
		OwnerItemID: item.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(50),
	})
	require.NoError(t, err)

	_, err = TransitionSwap(ctx, database, swap.ID, requester.ID, model.SwapStatusAccepted)
	assert.ErrorIs(t, err, model.ErrForbidden)

	got, err := GetSwap(ctx, database, swap.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusPending, got.Status)
	assert.Equal(t, model.DefaultPoints, pointsOf(t, database, owner.ID))
	assert.Equal(t, model.DefaultPoints, pointsOf(t, database, requester.ID))
	assert.Equal(t, model.ItemStatusActive, statusOf(t, database, item.ID))
}

func TestTransitionValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := TransitionSwap(ctx, database, 1, 1, "cancelled")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = TransitionSwap(ctx, database, 9999, 1, model.SwapStatusAccepted)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDoubleAcceptSettlesOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	requester := mustUser(t, database, "req@example.com")
	item := mustItem(t, database, owner.ID, itemInput("Sweater", 40), true)

	swap, err := CreateSwap(ctx, database, requester.ID, model.SwapRequest{
		OwnerItemID: item.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(40),
	})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := TransitionSwap(ctx, database, swap.ID, owner.ID, model.SwapStatusAccepted)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if assert.ErrorIs(t, err, model.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, model.DefaultPoints+40, pointsOf(t, database, owner.ID))
	assert.Equal(t, model.DefaultPoints-40, pointsOf(t, database, requester.ID))
}

func TestAcceptWithDrainedBalanceRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	requester := mustUser(t, database, "req@example.com")
	item := mustItem(t, database, owner.ID, itemInput("Trench", 90), true)

	swap, err := CreateSwap(ctx, database, requester.ID, model.SwapRequest{
		OwnerItemID: item.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(95),
	})
	require.NoError(t, err)

	// Balance spent elsewhere after the request was made.
	setPoints(t, database, requester.ID, 10)

	_, err = TransitionSwap(ctx, database, swap.ID, owner.ID, model.SwapStatusAccepted)
	assert.ErrorIs(t, err, model.ErrInsufficientPoints)

	got, err := GetSwap(ctx, database, swap.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SwapStatusPending, got.Status)
	assert.Equal(t, 10, pointsOf(t, database, requester.ID))
	assert.Equal(t, model.DefaultPoints, pointsOf(t, database, owner.ID))
	assert.Equal(t, model.ItemStatusActive, statusOf(t, database, item.ID))
}

func TestAcceptAfterItemAlreadySwapped(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	first := mustUser(t, database, "first@example.com")
	second := mustUser(t, database, "second@example.com")
	item := mustItem(t, database, owner.ID, itemInput("Loafers", 60), true)

	req := model.SwapRequest{OwnerItemID: item.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(60)}
	s1, err := CreateSwap(ctx, database, first.ID, req)
	require.NoError(t, err)
	s2, err := CreateSwap(ctx, database, second.ID, req)
	require.NoError(t, err)

	_, err = TransitionSwap(ctx, database, s1.ID, owner.ID, model.SwapStatusAccepted)
	require.NoError(t, err)

	_, err = TransitionSwap(ctx, database, s2.ID, owner.ID, model.SwapStatusAccepted)
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, model.DefaultPoints, pointsOf(t, database, second.ID))
	assert.Equal(t, model.DefaultPoints+60, pointsOf(t, database, owner.ID))
}

func TestCreateSwapRules(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	requester := mustUser(t, database, "req@example.com")
	public := mustItem(t, database, owner.ID, itemInput("Dress", 80), true)
	pending := mustItem(t, database, owner.ID, itemInput("Gown", 80), false)
	mine := mustItem(t, database, requester.ID, itemInput("Top", 30), true)
	minePending := mustItem(t, database, requester.ID, itemInput("Shorts", 30), false)

	tests := []struct {
		name string
		req  model.SwapRequest
		want error
	}{
		{"own item", model.SwapRequest{OwnerItemID: mine.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(30)}, model.ErrValidation},
		{"missing item", model.SwapRequest{OwnerItemID: 9999, Type: model.SwapTypePoints, PointsOffered: intPtr(30)}, model.ErrNotFound},
		{"not public", model.SwapRequest{OwnerItemID: pending.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(80)}, model.ErrConflict},
		{"below value", model.SwapRequest{OwnerItemID: public.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(79)}, model.ErrValidation},
		{"above balance", model.SwapRequest{OwnerItemID: public.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(101)}, model.ErrInsufficientPoints},
		{"offer someone else's item", model.SwapRequest{OwnerItemID: public.ID, RequesterItemID: idPtr(pending.ID), Type: model.SwapTypeDirect}, model.ErrForbidden},
		{"offer inactive item", model.SwapRequest{OwnerItemID: public.ID, RequesterItemID: idPtr(minePending.ID), Type: model.SwapTypeDirect}, model.ErrConflict},
		{"offer missing item", model.SwapRequest{OwnerItemID: public.ID, RequesterItemID: idPtr(9999), Type: model.SwapTypeDirect}, model.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateSwap(ctx, database, requester.ID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	swaps, err := ListSwaps(ctx, database, requester.ID, "")
	require.NoError(t, err)
	assert.Empty(t, swaps)
}

func TestListSwaps(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	requester := mustUser(t, database, "req@example.com")
	bystander := mustUser(t, database, "by@example.com")
	item := mustItem(t, database, owner.ID, itemInput("Poncho", 25), true)

	first, err := CreateSwap(ctx, database, requester.ID, model.SwapRequest{
		OwnerItemID: item.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(25),
	})
	require.NoError(t, err)
	second, err := CreateSwap(ctx, database, requester.ID, model.SwapRequest{
		OwnerItemID: item.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(30),
	})
	require.NoError(t, err)
	_, err = TransitionSwap(ctx, database, first.ID, owner.ID, model.SwapStatusRejected)
	require.NoError(t, err)

	for _, uid := range []int64{owner.ID, requester.ID} {
		swaps, err := ListSwaps(ctx, database, uid, "")
		require.NoError(t, err)
		require.Len(t, swaps, 2)
		assert.Equal(t, second.ID, swaps[0].ID)
		assert.Equal(t, "req", swaps[0].RequesterName)
		assert.Equal(t, "owner", swaps[0].OwnerName)
	}

	pending, err := ListSwaps(ctx, database, owner.ID, model.SwapStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	none, err := ListSwaps(ctx, database, bystander.ID, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}
