package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Item represents a garment listing.
type Item struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Size        string    `json:"size"`
	Condition   string    `json:"condition"`
	Brand       string    `json:"brand,omitempty"`
	Color       string    `json:"color,omitempty"`
	Tags        []string  `json:"tags"`
	PointsValue int       `json:"points_value"`
	ImageURLs   []string  `json:"image_urls"`
	Status      string    `json:"status"`
	IsApproved  bool      `json:"is_approved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	OwnerName string `json:"owner_name,omitempty"`
}

// IsPublic reports whether the item is visible to everyone.
func (i *Item) IsPublic() bool {
	return i.Status == ItemStatusActive && i.IsApproved
}

// Item statuses.
const (
	ItemStatusPending = "pending"
	ItemStatusActive  = "active"
	ItemStatusSwapped = "swapped"
	ItemStatusRemoved = "removed"
)

// ValidItemStatus reports whether status is a known item status.
func ValidItemStatus(status string) bool {
	switch status {
	case ItemStatusPending, ItemStatusActive, ItemStatusSwapped, ItemStatusRemoved:
		return true
	}
	return false
}

// Item conditions.
const (
	ConditionLikeNew   = "Like New"
	ConditionExcellent = "Excellent"
	ConditionGood      = "Good"
	ConditionFair      = "Fair"
)

// Conditions lists the accepted conditions, best first.
var Conditions = []string{ConditionLikeNew, ConditionExcellent, ConditionGood, ConditionFair}

// ValidCondition reports whether c is an accepted condition.
func ValidCondition(c string) bool {
	for _, v := range Conditions {
		if v == c {
			return true
		}
	}
	return false
}

// Categories offered by the listing form.
var Categories = []string{
	"men-shirts", "men-pants", "men-shoes", "men-accessories",
	"women-dresses", "women-tops", "women-pants", "women-shoes", "women-accessories",
	"kids-clothing", "kids-shoes",
	"home-decor", "home-textiles",
}

// Sizes offered by the listing form.
var Sizes = []string{"XS", "S", "M", "L", "XL", "XXL", "6", "7", "8", "9", "10", "11", "12", "One Size"}

// Listing limits.
const (
	MaxImages      = 5
	MaxTags        = 10
	MaxTagLength   = 30
	MaxTitleLength = 255
)

// ItemInput holds the owner-editable listing fields.
type ItemInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	Brand       string   `json:"brand"`
	Color       string   `json:"color"`
	Tags        []string `json:"tags"`
	PointsValue int      `json:"points_value"`
	ImageURLs   []string `json:"image_urls"`
}

// Normalize trims whitespace and drops empty tags and image URLs.
func (in *ItemInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Type = strings.TrimSpace(in.Type)
	in.Size = strings.TrimSpace(in.Size)
	in.Condition = strings.TrimSpace(in.Condition)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Color = strings.TrimSpace(in.Color)
	in.Tags = compact(in.Tags)
	in.ImageURLs = compact(in.ImageURLs)
}

// Validate checks the input and returns a *ValidationError listing every bad field.
func (in *ItemInput) Validate() error {
	var v Validator
	in.checkDetails(&v)
	v.Check(len(in.ImageURLs) >= 1 && len(in.ImageURLs) <= MaxImages, "image_urls", "between 1 and 5 images required")
	return v.Err()
}

// ValidateDetails checks every field except the images, for forms that
// upload photos only once the rest of the listing is valid.
func (in *ItemInput) ValidateDetails() error {
	var v Validator
	in.checkDetails(&v)
	return v.Err()
}

func (in *ItemInput) checkDetails(v *Validator) {
	v.Check(in.Title != "", "title", "is required")
	v.Check(utf8.RuneCountInString(in.Title) <= MaxTitleLength, "title", "is too long")
	v.Check(in.Description != "", "description", "is required")
	v.Check(in.Category != "", "category", "is required")
	v.Check(in.Type != "", "type", "is required")
	v.Check(in.Size != "", "size", "is required")
	v.Check(ValidCondition(in.Condition), "condition", "must be one of Like New, Excellent, Good, Fair")
	v.Check(in.PointsValue > 0, "points_value", "must be positive")
	v.Check(len(in.Tags) <= MaxTags, "tags", "at most 10 tags allowed")
	for _, t := range in.Tags {
		if utf8.RuneCountInString(t) > MaxTagLength {
			v.Check(false, "tags", "tags must be at most 30 characters")
			break
		}
	}
}

// ItemPatch is a partial update; nil fields are left unchanged.
type ItemPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Type        *string   `json:"type"`
	Size        *string   `json:"size"`
	Condition   *string   `json:"condition"`
	Brand       *string   `json:"brand"`
	Color       *string   `json:"color"`
	Tags        *[]string `json:"tags"`
	PointsValue *int      `json:"points_value"`
	ImageURLs   *[]string `json:"image_urls"`
}

// Apply returns the input that results from applying p on top of item.
func (p *ItemPatch) Apply(item *Item) ItemInput {
	in := ItemInput{
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Type:        item.Type,
		Size:        item.Size,
		Condition:   item.Condition,
		Brand:       item.Brand,
		Color:       item.Color,
		Tags:        item.Tags,
		PointsValue: item.PointsValue,
		ImageURLs:   item.ImageURLs,
	}
	setString(&in.Title, p.Title)
	setString(&in.Description, p.Description)
	setString(&in.Category, p.Category)
	setString(&in.Type, p.Type)
	setString(&in.Size, p.Size)
	setString(&in.Condition, p.Condition)
	setString(&in.Brand, p.Brand)
	setString(&in.Color, p.Color)
	if p.Tags != nil {
		in.Tags = *p.Tags
	}
	if p.PointsValue != nil {
		in.PointsValue = *p.PointsValue
	}
	if p.ImageURLs != nil {
		in.ImageURLs = *p.ImageURLs
	}
	in.Normalize()
	return in
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
