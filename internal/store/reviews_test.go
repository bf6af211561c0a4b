package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/model"
)

func completedSwap(t *testing.T, ctx context.Context, database *sql.DB, owner, requester *model.User) *model.Swap {
	t.Helper()
	item := mustItem(t, database, owner.ID, itemInput("Cardigan", 40), true)
	swap, err := CreateSwap(ctx, database, requester.ID, model.SwapRequest{
		OwnerItemID: item.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(40),
	})
	require.NoError(t, err)
	_, err = TransitionSwap(ctx, database, swap.ID, owner.ID, model.SwapStatusAccepted)
	require.NoError(t, err)
	swap, err = TransitionSwap(ctx, database, swap.ID, owner.ID, model.SwapStatusCompleted)
	require.NoError(t, err)
	return swap
}

func TestCreateReview(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	requester := mustUser(t, database, "req@example.com")
	swap := completedSwap(t, ctx, database, owner, requester)

	review, err := CreateReview(ctx, database, requester.ID, model.ReviewInput{SwapID: swap.ID, Rating: 5, Comment: "Lovely"})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, review.RevieweeID)
	assert.Equal(t, "req", review.ReviewerName)

	_, err = CreateReview(ctx, database, requester.ID, model.ReviewInput{SwapID: swap.ID, Rating: 4})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = CreateReview(ctx, database, owner.ID, model.ReviewInput{SwapID: swap.ID, Rating: 4})
	require.NoError(t, err)

	summary, err := GetRatingSummary(ctx, database, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RatingSummary{Count: 1, Average: 5}, summary)

	reviews, err := ListReviews(ctx, database, requester.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 4, reviews[0].Rating)

	written, err := ListReviewsBy(ctx, database, requester.ID)
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Equal(t, swap.ID, written[0].SwapID)
}

func TestCreateReviewRules(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := mustUser(t, database, "owner@example.com")
	requester := mustUser(t, database, "req@example.com")
	outsider := mustUser(t, database, "out@example.com")
	done := completedSwap(t, ctx, database, owner, requester)

	item := mustItem(t, database, owner.ID, itemInput("Beanie", 15), true)
	open, err := CreateSwap(ctx, database, requester.ID, model.SwapRequest{
		OwnerItemID: item.ID, Type: model.SwapTypePoints, PointsOffered: intPtr(15),
	})
	require.NoError(t, err)

	_, err = CreateReview(ctx, database, outsider.ID, model.ReviewInput{SwapID: done.ID, Rating: 3})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = CreateReview(ctx, database, requester.ID, model.ReviewInput{SwapID: open.ID, Rating: 3})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = CreateReview(ctx, database, requester.ID, model.ReviewInput{SwapID: 9999, Rating: 3})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = CreateReview(ctx, database, requester.ID, model.ReviewInput{SwapID: done.ID, Rating: 6})
	assert.ErrorIs(t, err, model.ErrValidation)
}
