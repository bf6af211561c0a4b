package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/omara/internal/model"
)

// CreateImage stores an encoded listing photo uploaded by userID.
func CreateImage(ctx context.Context, db *sql.DB, userID int64, mime string, data []byte) (*model.Image, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO images (user_id, mime, data) VALUES (?, ?, ?)`,
		userID, mime, data,
	)
	if err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting image id: %w", err)
	}

	img := &model.Image{ID: id, UserID: userID, MIME: mime, Size: len(data)}
	err = db.QueryRowContext(ctx, `SELECT created_at FROM images WHERE id = ?`, id).Scan(&img.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}
	return img, nil
}

// GetImage returns an image's bytes and MIME type, or nil data if it does not exist.
func GetImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var (
		data []byte
		mime string
	)
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM images WHERE id = ?`, id,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}
	return data, mime, nil
}
