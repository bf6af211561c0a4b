package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/erazemk/omara/internal/db"
)

func TestCreateAndGetImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user := mustUser(t, database, "pics@example.com")

	data := []byte{0xFF, 0xD8, 0xFF, 0x01, 0x02}
	img, err := CreateImage(ctx, database, user.ID, "image/jpeg", data)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	if img.Size != len(data) || img.MIME != "image/jpeg" {
		t.Errorf("unexpected image: %+v", img)
	}

	got, mime, err := GetImage(ctx, database, img.ID)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if !bytes.Equal(got, data) || mime != "image/jpeg" {
		t.Errorf("expected stored bytes back, got %v %q", got, mime)
	}

	missing, _, err := GetImage(ctx, database, 9999)
	if err != nil || missing != nil {
		t.Errorf("expected nil for missing image, got %v err=%v", missing, err)
	}
}
