package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/omara/internal/model"
)

func mustUser(t *testing.T, database *sql.DB, email string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, NewUser{Email: email, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func setPoints(t *testing.T, database *sql.DB, userID int64, points int) {
	t.Helper()
	if _, err := database.Exec(`UPDATE users SET points = ? WHERE id = ?`, points, userID); err != nil {
		t.Fatalf("setting points: %v", err)
	}
}

func itemInput(title string, points int) model.ItemInput {
	return model.ItemInput{
		Title:       title,
		Description: "Gently used",
		Category:    "women-tops",
		Type:        "Top",
		Size:        "M",
		Condition:   model.ConditionGood,
		PointsValue: points,
		ImageURLs:   []string{"/api/images/1"},
	}
}

func mustItem(t *testing.T, database *sql.DB, userID int64, in model.ItemInput, approve bool) *model.Item {
	t.Helper()
	ctx := context.Background()
	item, err := CreateItem(ctx, database, userID, in)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if approve {
		item, err = ApproveItem(ctx, database, item.ID)
		if err != nil {
			t.Fatalf("ApproveItem: %v", err)
		}
	}
	return item
}

func pointsOf(t *testing.T, database *sql.DB, userID int64) int {
	t.Helper()
	u, err := GetUser(context.Background(), database, userID)
	if err != nil || u == nil {
		t.Fatalf("GetUser(%d): %v", userID, err)
	}
	return u.Points
}

func statusOf(t *testing.T, database *sql.DB, itemID int64) string {
	t.Helper()
	item, err := GetItem(context.Background(), database, itemID)
	if err != nil || item == nil {
		t.Fatalf("GetItem(%d): %v", itemID, err)
	}
	return item.Status
}

func intPtr(v int) *int { return &v }
func idPtr(v int64) *int64 { return &v }
