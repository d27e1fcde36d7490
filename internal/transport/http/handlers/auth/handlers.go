package authhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
	"messease/internal/transport/http/shared"
)

// SessionForgetter drops per-session state held outside the session store.
type SessionForgetter interface {
	Forget(sessionKey string)
}

type Handler struct {
	Service  *auth.Service
	Audit    audit.Recorder
	Sessions SessionForgetter
}

func NewHandler(service *auth.Service, auditSvc audit.Recorder, sessions SessionForgetter) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Sessions: sessions}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Get("/me", h.HandleMe)
			r.Post("/logout", h.HandleLogout)
			r.Post("/refresh", h.HandleRefresh)
			r.Post("/mfa/setup", h.HandleMFASetup)
			r.Post("/mfa/enable", h.HandleMFAEnable)
			r.Post("/mfa/disable", h.HandleMFADisable)
		})
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

type sessionView struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func viewOf(s auth.Session) sessionView {
	perms := auth.RolePermissions[s.Role]
	if perms == nil {
		perms = []string{}
	}
	return sessionView{ID: s.AdminID, Email: s.Email, Name: s.Name, Role: s.Role, Permissions: perms}
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		case errors.Is(err, auth.ErrMFARequired):
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", middleware.GetRequestID(r.Context()))
		case errors.Is(err, auth.ErrMFAInvalid):
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
		default:
			slog.Warn("login failed", "err", err)
			api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    result.Session.AdminID,
		Action:     audit.ActionAdminLogin,
		EntityType: "admin",
		EntityID:   result.Session.AdminID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
	}); err != nil {
		slog.Warn("audit admin.login failed", "err", err)
	}
	api.Success(w, map[string]any{
		"token": result.Token,
		"admin": viewOf(result.Session),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	api.Success(w, viewOf(session), middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	if err := h.Service.Logout(r.Context(), session); err != nil {
		slog.Warn("logout session revoke failed", "adminId", session.AdminID, "err", err)
	}
	if h.Sessions != nil {
		h.Sessions.Forget(session.SessionID)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	result, err := h.Service.Refresh(r.Context(), session)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) {
			api.Fail(w, http.StatusUnauthorized, "session_expired", "session expired", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to refresh session", middleware.GetRequestID(r.Context()))
		return
	}
	if h.Sessions != nil {
		h.Sessions.Forget(session.SessionID)
	}
	api.Success(w, map[string]any{
		"token": result.Token,
		"admin": viewOf(result.Session),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())
	setup, err := h.Service.SetupMFA(r.Context(), session)
	if err != nil {
		if errors.Is(err, auth.ErrMFAUnavailable) {
			api.Fail(w, http.StatusServiceUnavailable, "mfa_unavailable", "mfa requires DATA_ENCRYPTION_KEY", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to set up mfa", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, false)
}

func (h *Handler) toggleMFA(w http.ResponseWriter, r *http.Request, enable bool) {
	session, _ := middleware.GetSession(r.Context())
	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	action := audit.ActionAdminMFADisabled
	apply := h.Service.DisableMFA
	if enable {
		action = audit.ActionAdminMFAEnabled
		apply = h.Service.EnableMFA
	}
	if err := apply(r.Context(), session, payload.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrMFAUnavailable):
			api.Fail(w, http.StatusServiceUnavailable, "mfa_unavailable", "mfa requires DATA_ENCRYPTION_KEY", middleware.GetRequestID(r.Context()))
		case errors.Is(err, auth.ErrMFANotSetup):
			api.Fail(w, http.StatusBadRequest, "mfa_not_setup", "mfa setup required", middleware.GetRequestID(r.Context()))
		case errors.Is(err, auth.ErrMFAInvalid):
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "mfa_update_failed", "failed to update mfa", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    session.AdminID,
		Action:     action,
		EntityType: "admin",
		EntityID:   session.AdminID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		After:      map[string]bool{"mfaEnabled": enable},
	}); err != nil {
		slog.Warn("audit mfa toggle failed", "action", action, "err", err)
	}
	api.Success(w, map[string]bool{"mfaEnabled": enable}, middleware.GetRequestID(r.Context()))
}
