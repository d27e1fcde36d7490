package feedbackhandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/domain/feedback"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
	"messease/internal/transport/http/shared"
)

const maxPhotoMultipartBytes = feedback.MaxPhotoBytes + 512*1024

type Handler struct {
	Service *feedback.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *feedback.Service, perms middleware.PermissionStore, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/feedback", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFeedbackRead, h.Perms)).Get("/polls", h.handleListPolls)
		r.With(middleware.RequirePermission(auth.PermFeedbackWrite, h.Perms)).Post("/polls", h.handleCreatePoll)
		r.With(middleware.RequirePermission(auth.PermFeedbackRead, h.Perms)).Get("/reviews", h.handleListReviews)
		r.With(middleware.RequirePermission(auth.PermFeedbackWrite, h.Perms)).Post("/reviews/{reviewID}/resolve", h.handleResolve)
		r.With(middleware.RequirePermission(auth.PermFeedbackWrite, h.Perms)).Post("/reviews/{reviewID}/photos", h.handleUploadPhoto)
	})
}

func (h *Handler) handleListPolls(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	out, err := h.Service.Polls(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "polls_list_failed", "failed to list polls", middleware.GetRequestID(r.Context()))
		return
	}
	api.List(w, out.Polls, out.Total, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload feedback.NewPoll
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	poll, err := h.Service.CreatePoll(r.Context(), payload, session.Creator())
	if err != nil {
		switch {
		case errors.Is(err, feedback.ErrEmptyQuestion):
			shared.FailField(w, middleware.GetRequestID(r.Context()), "question", err.Error())
		case errors.Is(err, feedback.ErrTooFewOptions), errors.Is(err, feedback.ErrTooManyOptions):
			shared.FailField(w, middleware.GetRequestID(r.Context()), "options", err.Error())
		default:
			api.Fail(w, http.StatusInternalServerError, "poll_create_failed", "failed to create poll", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    session.AdminID,
		Action:     audit.ActionPollCreate,
		EntityType: "poll",
		EntityID:   poll.ID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		After:      poll,
	}); err != nil {
		slog.Warn("audit poll.create failed", "err", err)
	}
	api.Created(w, poll, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	filter := feedback.ReviewFilter{Limit: page.Limit, Offset: page.Offset}
	if raw := strings.TrimSpace(r.URL.Query().Get("solved")); raw != "" {
		solved, err := strconv.ParseBool(raw)
		if err != nil {
			shared.FailField(w, middleware.GetRequestID(r.Context()), "solved", "must be true or false")
			return
		}
		filter.Solved = &solved
	}

	out, err := h.Service.Reviews(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reviews_list_failed", "failed to list reviews", middleware.GetRequestID(r.Context()))
		return
	}
	api.List(w, out.Reviews, out.Total, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id := chi.URLParam(r, "reviewID")
	before, err := h.Service.Resolve(r.Context(), id)
	if err != nil {
		if errors.Is(err, feedback.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "review not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "review_resolve_failed", "failed to resolve review", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    session.AdminID,
		Action:     audit.ActionReviewResolve,
		EntityType: "review",
		EntityID:   id,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     map[string]bool{"solved": before.Solved},
		After:      map[string]bool{"solved": true},
	}); err != nil {
		slog.Warn("audit review.resolve failed", "err", err)
	}
	api.Success(w, map[string]any{"id": id, "solved": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoMultipartBytes)
	if err := r.ParseMultipartForm(maxPhotoMultipartBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", middleware.GetRequestID(r.Context()))
		return
	}
	files := r.MultipartForm.File["photo"]
	if len(files) != 1 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "exactly one photo is required", middleware.GetRequestID(r.Context()))
		return
	}
	content, contentType, err := readPhoto(files[0])
	if err != nil {
		if errors.Is(err, feedback.ErrPhotoTooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "photo_too_large", "photo exceeds maximum size", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	id := chi.URLParam(r, "reviewID")
	url, err := h.Service.AttachPhoto(r.Context(), id, contentType, content)
	if err != nil {
		switch {
		case errors.Is(err, feedback.ErrStorageUnavailable):
			api.Fail(w, http.StatusServiceUnavailable, "storage_not_configured", "photo storage is not configured", middleware.GetRequestID(r.Context()))
		case errors.Is(err, feedback.ErrUnsupportedPhoto):
			api.Fail(w, http.StatusUnsupportedMediaType, "unsupported_photo", "photo must be jpeg, png or webp", middleware.GetRequestID(r.Context()))
		case errors.Is(err, feedback.ErrPhotoTooLarge):
			api.Fail(w, http.StatusRequestEntityTooLarge, "photo_too_large", "photo exceeds maximum size", middleware.GetRequestID(r.Context()))
		case errors.Is(err, feedback.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "review not found", middleware.GetRequestID(r.Context()))
		default:
			slog.Warn("review photo upload failed", "reviewId", id, "err", err)
			api.Fail(w, http.StatusBadGateway, "photo_upload_failed", "failed to store photo", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    session.AdminID,
		Action:     audit.ActionReviewPhotoAdd,
		EntityType: "review",
		EntityID:   id,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		After:      map[string]string{"url": url},
	}); err != nil {
		slog.Warn("audit review.photo.add failed", "err", err)
	}
	api.Created(w, map[string]string{"url": url}, middleware.GetRequestID(r.Context()))
}

func readPhoto(header *multipart.FileHeader) ([]byte, string, error) {
	if header.Size > feedback.MaxPhotoBytes {
		return nil, "", feedback.ErrPhotoTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", errors.New("failed to open photo")
	}
	content, err := io.ReadAll(io.LimitReader(file, feedback.MaxPhotoBytes+1))
	closeErr := file.Close()
	if err != nil {
		return nil, "", errors.New("failed to read photo")
	}
	if closeErr != nil {
		return nil, "", errors.New("failed to close photo")
	}
	if len(content) == 0 {
		return nil, "", errors.New("empty photo is not allowed")
	}
	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}
	return content, contentType, nil
}
