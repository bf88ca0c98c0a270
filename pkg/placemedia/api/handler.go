package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/placepix/placemedia/pkg/placemedia"
)

// Handler handles HTTP requests for media uploads and posts.
type Handler struct {
	service placemedia.Service
	logger  *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(service placemedia.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the routes for the media/post API. Every route expects
// the Identity middleware to have resolved the caller.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/uploads", h.RequestUploadCredentials)

	r.Route("/posts", func(r chi.Router) {
		r.Post("/", h.CreatePost)
		r.Get("/", h.ListPosts)
		r.Get("/{postID}", h.GetPost)
		r.Patch("/{postID}", h.UpdatePost)
		r.Delete("/{postID}", h.DeletePost)
		r.Get("/{postID}/media", h.GetPostMedia)
		r.Put("/{postID}/media", h.UpdatePostMedia)
	})

	return r
}

// Request bodies

// UploadItem declares one image of an upload batch.
type UploadItem struct {
	ClientKey string `json:"client_key"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// UploadRequest is the request body for requesting upload credentials.
type UploadRequest struct {
	Items []UploadItem `json:"items"`
}

// BindSpec is one media to bind at post creation; list position is the
// display order.
type BindSpec struct {
	MediaID    string               `json:"media_id"`
	Location   *placemedia.GeoPoint `json:"location,omitempty"`
	CapturedAt *time.Time           `json:"captured_at,omitempty"`
	Address    string               `json:"address,omitempty"`
}

// CreatePostBody is the request body for creating a post.
type CreatePostBody struct {
	Kind        string     `json:"kind"`
	Description string     `json:"description,omitempty"`
	Media       []BindSpec `json:"media"`
}

// UpdatePostBody is the request body for editing post fields.
type UpdatePostBody struct {
	Description string `json:"description"`
}

// TargetItem is one entry of a media reconciliation target list.
type TargetItem struct {
	MediaID    string               `json:"media_id"`
	New        bool                 `json:"new,omitempty"`
	Location   *placemedia.GeoPoint `json:"location,omitempty"`
	CapturedAt *time.Time           `json:"captured_at,omitempty"`
	Address    string               `json:"address,omitempty"`
}

// UpdateMediaBody is the request body for replacing a post's media set.
type UpdateMediaBody struct {
	Target []TargetItem `json:"target"`
}

// Handlers

func (h *Handler) RequestUploadCredentials(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := placemedia.UploadCredentialsRequest{OwnerID: callerID}
	for _, item := range body.Items {
		req.Items = append(req.Items, placemedia.UploadDescriptor{
			ClientKey: item.ClientKey,
			MimeType:  item.MimeType,
			SizeBytes: item.SizeBytes,
		})
	}

	credentials, err := h.service.RequestUploadCredentials(r.Context(), req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{"credentials": credentials})
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body CreatePostBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := placemedia.CreatePostRequest{
		OwnerID:     callerID,
		Kind:        placemedia.PostKind(body.Kind),
		Description: body.Description,
	}
	for _, spec := range body.Media {
		mediaID, err := uuid.Parse(spec.MediaID)
		if err != nil {
			http.Error(w, "invalid media id", http.StatusBadRequest)
			return
		}
		req.Media = append(req.Media, placemedia.MediaBindSpec{
			MediaID:    mediaID,
			Location:   spec.Location,
			CapturedAt: spec.CapturedAt,
			Address:    spec.Address,
		})
	}

	post, err := h.service.CreatePost(r.Context(), req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, err := h.service.GetPost(r.Context(), postID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, post)
}

func (h *Handler) GetPostMedia(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	media, err := h.service.GetPostMedia(r.Context(), postID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"media": media})
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	posts, err := h.service.ListPosts(r.Context(), callerID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"posts": posts})
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	var body UpdatePostBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.service.UpdatePost(r.Context(), placemedia.UpdatePostRequest{
		CallerID:    callerID,
		PostID:      postID,
		Description: body.Description,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, post)
}

func (h *Handler) UpdatePostMedia(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	var body UpdateMediaBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := placemedia.UpdatePostMediaRequest{CallerID: callerID, PostID: postID}
	for _, item := range body.Target {
		mediaID, err := uuid.Parse(item.MediaID)
		if err != nil {
			http.Error(w, "invalid media id", http.StatusBadRequest)
			return
		}
		req.Target = append(req.Target, placemedia.MediaTargetItem{
			MediaID:    mediaID,
			New:        item.New,
			Location:   item.Location,
			CapturedAt: item.CapturedAt,
			Address:    item.Address,
		})
	}

	if err := h.service.UpdatePostMedia(r.Context(), req); err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeletePost(r.Context(), callerID, postID); err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// Error rendering

type errorBody struct {
	Kind    placemedia.Kind `json:"kind"`
	Message string          `json:"message"`
	Limit   *int64          `json:"limit,omitempty"`
	Actual  *int64          `json:"actual,omitempty"`
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	kind := placemedia.KindOf(err)
	body := errorBody{Kind: kind, Message: err.Error()}

	var le *placemedia.LimitError
	if errors.As(err, &le) {
		body.Limit = &le.Limit
		body.Actual = &le.Actual
	}

	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]errorBody{"error": body})
}

func statusForKind(kind placemedia.Kind) int {
	switch kind {
	case placemedia.KindInvalidArgument:
		return http.StatusBadRequest
	case placemedia.KindPermissionDenied:
		return http.StatusForbidden
	case placemedia.KindNotFound:
		return http.StatusNotFound
	case placemedia.KindResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
