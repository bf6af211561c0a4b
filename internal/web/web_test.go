package web

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	router, err := NewRouter(database, Options{JWTSecret: testJWTSecret})
	require.NoError(t, err)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, database
}

// browser is a client that keeps cookies and does not follow redirects.
func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, c *http.Client, u string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func post(t *testing.T, c *http.Client, u string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(u, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func createUser(t *testing.T, database *sql.DB, email, role string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	u, err := store.CreateUser(context.Background(), database, store.NewUser{Email: email, PasswordHash: hash, Role: role})
	require.NoError(t, err)
	return u
}

func signIn(t *testing.T, server *httptest.Server, email string) *http.Client {
	t.Helper()
	c := browser(t)
	resp := post(t, c, server.URL+"/login", url.Values{"email": {email}, "password": {"correct-horse"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
	return c
}

func listItem(t *testing.T, database *sql.DB, userID int64, title string, approve bool) *model.Item {
	t.Helper()
	ctx := context.Background()
	item, err := store.CreateItem(ctx, database, userID, model.ItemInput{
		Title:       title,
		Description: "Soft and warm",
		Category:    "women-tops",
		Type:        "Sweater",
		Size:        "M",
		Condition:   model.ConditionGood,
		PointsValue: 40,
		ImageURLs:   []string{"/api/images/1"},
	})
	require.NoError(t, err)
	if approve {
		item, err = store.ApproveItem(ctx, database, item.ID)
		require.NoError(t, err)
	}
	return item
}

func TestTemplatesParse(t *testing.T) {
	ts, err := LoadTemplates()
	require.NoError(t, err)
	for _, page := range pages {
		assert.Contains(t, ts.templates, page)
	}
}

func TestBrowseIsPublicAndHidesPending(t *testing.T) {
	server, database := setupTestServer(t)
	owner := createUser(t, database, "ana@example.com", model.RoleUser)
	listItem(t, database, owner.ID, "Cashmere sweater", true)
	listItem(t, database, owner.ID, "Pending scarf", false)

	resp, body := get(t, browser(t), server.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Cashmere sweater")
	assert.NotContains(t, body, "Pending scarf")

	_, body = get(t, browser(t), server.URL+"/?search=cashmere")
	assert.Contains(t, body, "Cashmere sweater")
	_, body = get(t, browser(t), server.URL+"/?search=linen")
	assert.NotContains(t, body, "Cashmere sweater")
}

func TestMemberPagesRedirectToLogin(t *testing.T) {
	server, _ := setupTestServer(t)
	c := browser(t)

	for _, path := range []string{"/dashboard", "/items/new", "/admin"} {
		resp, _ := get(t, c, server.URL+path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
}

func TestLoginAndLogout(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "ana@example.com", model.RoleUser)

	c := browser(t)
	resp := post(t, c, server.URL+"/login", url.Values{"email": {"ana@example.com"}, "password": {"wrong-one"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c = signIn(t, server, "ana@example.com")
	resp, body := get(t, c, server.URL+"/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "100 points")

	// Keep the cookie so it can be replayed after logout.
	u, _ := url.Parse(server.URL)
	cookies := c.Jar.Cookies(u)
	require.NotEmpty(t, cookies)

	resp = post(t, c, server.URL+"/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	replay := browser(t)
	replay.Jar.SetCookies(u, cookies)
	resp, _ = get(t, replay, server.URL+"/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "revoked session must not be accepted")
}

func TestRegister(t *testing.T) {
	server, _ := setupTestServer(t)
	c := browser(t)

	resp := post(t, c, server.URL+"/register", url.Values{"email": {"new@example.com"}, "password": {"short"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, c, server.URL+"/register", url.Values{"email": {"new@example.com"}, "password": {"correct-horse"}, "first_name": {"Nina"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	_, body := get(t, c, server.URL+"/dashboard")
	assert.Contains(t, body, "Hello, Nina")

	resp = post(t, browser(t), server.URL+"/register", url.Values{"email": {"new@example.com"}, "password": {"correct-horse"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestItemNewSuggestsValue(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "ana@example.com", model.RoleUser)
	c := signIn(t, server, "ana@example.com")

	resp, body := get(t, c, server.URL+"/items/new?condition="+url.QueryEscape(model.ConditionLikeNew)+"&brand=Coach")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "300 points")
}

func postItemForm(t *testing.T, c *http.Client, u string, fields map[string]string) *http.Response {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 30, 30))
	img.Set(2, 2, color.RGBA{G: 200, A: 255})
	var photo bytes.Buffer
	require.NoError(t, png.Encode(&photo, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("images", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(photo.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := c.Post(u, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func countImages(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM images`).Scan(&n))
	return n
}

func TestItemCreateStoresPhotosOnlyForValidForms(t *testing.T) {
	server, database := setupTestServer(t)
	owner := createUser(t, database, "ana@example.com", model.RoleUser)
	c := signIn(t, server, "ana@example.com")

	fields := map[string]string{
		"description":  "Thick knit",
		"category":     "women-tops",
		"type":         "Sweater",
		"size":         "S",
		"condition":    model.ConditionGood,
		"points_value": "60",
	}
	resp := postItemForm(t, c, server.URL+"/items/new", fields)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, countImages(t, database))

	fields["title"] = "Knit sweater"
	resp = postItemForm(t, c, server.URL+"/items/new", fields)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/items/"))
	assert.Equal(t, 1, countImages(t, database))

	items, err := store.ListItems(context.Background(), database, store.ItemFilter{Scope: store.ScopeAll, UserID: owner.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].ImageURLs, 1)
	assert.True(t, strings.HasPrefix(items[0].ImageURLs[0], "/api/images/"))
}

func TestItemDetailVisibility(t *testing.T) {
	server, database := setupTestServer(t)
	owner := createUser(t, database, "ana@example.com", model.RoleUser)
	createUser(t, database, "bor@example.com", model.RoleUser)
	pending := listItem(t, database, owner.ID, "Pending scarf", false)
	path := fmt.Sprintf("%s/items/%d", server.URL, pending.ID)

	resp, _ := get(t, browser(t), path)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = get(t, signIn(t, server, "bor@example.com"), path)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := get(t, signIn(t, server, "ana@example.com"), path)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Awaiting approval")
}

func TestAdminApproval(t *testing.T) {
	server, database := setupTestServer(t)
	createUser(t, database, "admin@omara.local", model.RoleAdmin)
	owner := createUser(t, database, "ana@example.com", model.RoleUser)
	item := listItem(t, database, owner.ID, "Pending scarf", false)

	member := signIn(t, server, "ana@example.com")
	resp, _ := get(t, member, server.URL+"/admin")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := signIn(t, server, "admin@omara.local")
	resp, body := get(t, admin, server.URL+"/admin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Pending scarf")

	resp = post(t, admin, fmt.Sprintf("%s/admin/items/%d/approve", server.URL, item.ID), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/admin?ok="))

	got, err := store.GetItem(context.Background(), database, item.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublic())

	resp = post(t, admin, fmt.Sprintf("%s/admin/items/%d/approve", server.URL, item.ID), nil)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/admin?error="))
}

func TestSwapThroughPages(t *testing.T) {
	server, database := setupTestServer(t)
	ctx := context.Background()
	owner := createUser(t, database, "ana@example.com", model.RoleUser)
	requester := createUser(t, database, "bor@example.com", model.RoleUser)
	item := listItem(t, database, owner.ID, "Cashmere sweater", true)

	buyer := signIn(t, server, "bor@example.com")
	_, body := get(t, buyer, fmt.Sprintf("%s/items/%d", server.URL, item.ID))
	assert.Contains(t, body, "Redeem with points")

	resp := post(t, buyer, fmt.Sprintf("%s/items/%d/swap", server.URL, item.ID), url.Values{
		"type":           {model.SwapTypePoints},
		"points_offered": {"45"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/dashboard?ok="))

	swaps, err := store.ListSwaps(ctx, database, owner.ID, model.SwapStatusPending)
	require.NoError(t, err)
	require.Len(t, swaps, 1)

	seller := signIn(t, server, "ana@example.com")
	_, body = get(t, seller, server.URL+"/dashboard")
	assert.Contains(t, body, "Accept")

	resp = post(t, seller, fmt.Sprintf("%s/swaps/%d/status", server.URL, swaps[0].ID), url.Values{"status": {model.SwapStatusAccepted}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	me, err := store.GetUser(ctx, database, requester.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPoints-45, me.Points)
	me, err = store.GetUser(ctx, database, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPoints+45, me.Points)

	// The requester cannot settle the owner's side.
	resp = post(t, buyer, fmt.Sprintf("%s/swaps/%d/status", server.URL, swaps[0].ID), url.Values{"status": {model.SwapStatusCompleted}})
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/dashboard?error="))

	post(t, seller, fmt.Sprintf("%s/swaps/%d/status", server.URL, swaps[0].ID), url.Values{"status": {model.SwapStatusCompleted}})
	resp = post(t, buyer, fmt.Sprintf("%s/swaps/%d/review", server.URL, swaps[0].ID), url.Values{"rating": {"4"}, "comment": {"Quick"}})
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/dashboard?ok="))

	reviews, err := store.ListReviews(ctx, database, owner.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 4, reviews[0].Rating)
}

func TestWishlistToggle(t *testing.T) {
	server, database := setupTestServer(t)
	owner := createUser(t, database, "ana@example.com", model.RoleUser)
	fan := createUser(t, database, "bor@example.com", model.RoleUser)
	item := listItem(t, database, owner.ID, "Cashmere sweater", true)
	c := signIn(t, server, "bor@example.com")
	path := fmt.Sprintf("%s/items/%d/wishlist", server.URL, item.ID)

	post(t, c, path, url.Values{"action": {"add"}})
	entries, err := store.ListWishlist(context.Background(), database, fan.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, body := get(t, c, fmt.Sprintf("%s/items/%d", server.URL, item.ID))
	assert.Contains(t, body, "Remove from wishlist")

	post(t, c, path, url.Values{"action": {"remove"}})
	entries, err = store.ListWishlist(context.Background(), database, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "You do not have enough points.", userMessage(fmt.Errorf("debit: %w", model.ErrInsufficientPoints)))
	assert.Equal(t, "Please fix: rating must be between 1 and 5.", userMessage(model.NewValidationError("rating", "must be between 1 and 5")))
	assert.Equal(t, "Something went wrong.", userMessage(errors.New("disk full")))
	assert.Equal(t, http.StatusConflict, formStatus(fmt.Errorf("x: %w", model.ErrAlreadyExists)))
}
