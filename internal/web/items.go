package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/omara/internal/imaging"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
)

// ItemFormOptions are the choices offered by the filter and listing forms.
type ItemFormOptions struct {
	Categories []string
	Conditions []string
	Sizes      []string
	Brands     []string
}

var formOptions = ItemFormOptions{
	Categories: model.Categories,
	Conditions: model.Conditions,
	Sizes:      model.Sizes,
	Brands:     model.Brands,
}

// BrowsePage handles GET /.
func (s *Server) BrowsePage(w http.ResponseWriter, r *http.Request) {
	filter := store.FilterFromQuery(r.URL.Query())

	pd := s.page(r, "Browse")
	items, err := store.ListItems(r.Context(), s.DB, filter)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		pd.Error = "Could not load listings."
	}

	s.Templates.Render(w, "browse.html", &struct {
		PageData
		ItemFormOptions
		Items  []model.Item
		Filter store.ItemFilter
	}{
		PageData:        pd,
		ItemFormOptions: formOptions,
		Items:           items,
		Filter:          filter,
	})
}

type itemNewData struct {
	PageData
	ItemFormOptions
	Input     model.ItemInput
	Tags      string
	Suggested int
}

// ItemNewPage handles GET /items/new. Condition and brand in the query
// string prefill the form and the suggested value.
func (s *Server) ItemNewPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := model.ItemInput{
		Title:       q.Get("title"),
		Description: q.Get("description"),
		Category:    q.Get("category"),
		Type:        q.Get("type"),
		Size:        q.Get("size"),
		Condition:   q.Get("condition"),
		Brand:       q.Get("brand"),
		Color:       q.Get("color"),
	}
	suggested := model.SuggestPointsValue(in.Condition, in.Brand)
	in.PointsValue = suggested

	s.Templates.Render(w, "item_new.html", &itemNewData{
		PageData:        s.page(r, "List an item"),
		ItemFormOptions: formOptions,
		Input:           in,
		Tags:            q.Get("tags"),
		Suggested:       suggested,
	})
}

// ItemCreateSubmit handles POST /items/new.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, model.MaxImages*imaging.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		http.Error(w, "upload too large", http.StatusBadRequest)
		return
	}

	points, _ := strconv.Atoi(r.FormValue("points_value"))
	tags := r.FormValue("tags")
	in := model.ItemInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Type:        r.FormValue("type"),
		Size:        r.FormValue("size"),
		Condition:   r.FormValue("condition"),
		Brand:       r.FormValue("brand"),
		Color:       r.FormValue("color"),
		Tags:        strings.Split(tags, ","),
		PointsValue: points,
	}

	rerender := func(status int, msg string) {
		pd := s.page(r, "List an item")
		pd.Error = msg
		s.Templates.RenderStatus(w, status, "item_new.html", &itemNewData{
			PageData:        pd,
			ItemFormOptions: formOptions,
			Input:           in,
			Tags:            tags,
			Suggested:       model.SuggestPointsValue(in.Condition, in.Brand),
		})
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 || len(files) > model.MaxImages {
		rerender(http.StatusBadRequest, "Add between 1 and 5 photos.")
		return
	}

	in.Normalize()
	if err := in.ValidateDetails(); err != nil {
		rerender(formStatus(err), userMessage(err))
		return
	}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			rerender(http.StatusBadRequest, "Could not read a photo.")
			return
		}
		photo, err := s.Images.Process(f)
		f.Close()
		if err != nil {
			msg := "Could not process a photo."
			if errors.Is(err, imaging.ErrUnsupportedFormat) {
				msg = "Photos must be JPEG or PNG."
			}
			rerender(http.StatusBadRequest, msg)
			return
		}
		img, err := store.CreateImage(r.Context(), s.DB, claims.UserID, photo.MIME, photo.Data)
		if err != nil {
			slog.Error("failed to save image", "error", err)
			rerender(http.StatusInternalServerError, "Could not save a photo.")
			return
		}
		in.ImageURLs = append(in.ImageURLs, model.ImageURL(img.ID))
	}

	item, err := store.CreateItem(r.Context(), s.DB, claims.UserID, in)
	if err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to create item", "error", err)
		}
		rerender(formStatus(err), userMessage(err))
		return
	}

	slog.Info("item created", "user", claims.Email, "item_id", item.ID, "title", item.Title)
	redirectTo(w, r, itemPath(item.ID), nil, "Listed. It will appear once an admin approves it.")
}

// ItemDetailPage handles GET /items/{id}.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil || !(item.IsPublic() || claims != nil && (claims.UserID == item.UserID || claims.CanModerate())) {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	owner, err := store.GetPublicProfile(r.Context(), s.DB, item.UserID)
	if err != nil {
		slog.Error("failed to get owner profile", "error", err)
	}

	var (
		myItems    []model.Item
		balance    int
		wishlisted bool
		isOwner    = claims != nil && claims.UserID == item.UserID
		canRequest = claims != nil && !isOwner && item.IsPublic()
	)
	if canRequest {
		myItems, err = store.ListItems(r.Context(), s.DB, store.ItemFilter{
			Scope:  store.ScopeStatus,
			Status: model.ItemStatusActive,
			UserID: claims.UserID,
			Limit:  store.MaxItemLimit,
		})
		if err != nil {
			slog.Error("failed to list own items", "error", err)
		}
		if me, err := store.GetUser(r.Context(), s.DB, claims.UserID); err == nil && me != nil {
			balance = me.Points
		}
	}
	if claims != nil {
		entries, err := store.ListWishlist(r.Context(), s.DB, claims.UserID)
		if err != nil {
			slog.Error("failed to list wishlist", "error", err)
		}
		for _, e := range entries {
			if e.ItemID == item.ID {
				wishlisted = true
			}
		}
	}

	s.Templates.Render(w, "item_detail.html", &struct {
		PageData
		Item       *model.Item
		Owner      *model.PublicProfile
		IsOwner    bool
		CanRequest bool
		MyItems    []model.Item
		Balance    int
		Wishlisted bool
	}{
		PageData:   s.page(r, item.Title),
		Item:       item,
		Owner:      owner,
		IsOwner:    isOwner,
		CanRequest: canRequest,
		MyItems:    myItems,
		Balance:    balance,
		Wishlisted: wishlisted,
	})
}

// SwapSubmit handles POST /items/{id}/swap.
func (s *Server) SwapSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	req := model.SwapRequest{
		OwnerItemID: id,
		Type:        r.FormValue("type"),
		Message:     r.FormValue("message"),
	}
	switch req.Type {
	case model.SwapTypeDirect:
		if mine, err := strconv.ParseInt(r.FormValue("requester_item_id"), 10, 64); err == nil {
			req.RequesterItemID = &mine
		}
	case model.SwapTypePoints:
		if points, err := strconv.Atoi(r.FormValue("points_offered")); err == nil {
			req.PointsOffered = &points
		}
	}

	swap, err := store.CreateSwap(r.Context(), s.DB, claims.UserID, req)
	if err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to create swap", "error", err)
		}
		redirectTo(w, r, itemPath(id), err, "")
		return
	}

	slog.Info("swap requested", "user", claims.Email, "swap_id", swap.ID, "type", swap.Type, "owner_item_id", id)
	redirectTo(w, r, "/dashboard", nil, "Swap request sent.")
}

// WishlistSubmit handles POST /items/{id}/wishlist.
func (s *Server) WishlistSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if r.FormValue("action") == "remove" {
		err = store.RemoveFromWishlist(r.Context(), s.DB, claims.UserID, id)
	} else {
		_, err = store.AddToWishlist(r.Context(), s.DB, claims.UserID, id)
	}
	if err != nil && formStatus(err) == http.StatusInternalServerError {
		slog.Error("failed to update wishlist", "error", err)
	}
	redirectTo(w, r, itemPath(id), err, "")
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if _, err := store.DeleteItem(r.Context(), s.DB, id, claims.UserID, claims.CanModerate()); err != nil {
		if formStatus(err) == http.StatusInternalServerError {
			slog.Error("failed to delete item", "error", err)
		}
		redirectTo(w, r, itemPath(id), err, "")
		return
	}

	slog.Info("item deleted", "user", claims.Email, "item_id", id)
	redirectTo(w, r, "/dashboard", nil, "Item deleted.")
}

func itemPath(id int64) string {
	return fmt.Sprintf("/items/%d", id)
}
