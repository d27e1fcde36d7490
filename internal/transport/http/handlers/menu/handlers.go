package menuhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/domain/menu"
	"messease/internal/transport/http/api"
	"messease/internal/transport/http/middleware"
	"messease/internal/transport/http/shared"
)

type Handler struct {
	Service *menu.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *menu.Service, perms middleware.PermissionStore, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/menu", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermMenuRead, h.Perms)).Get("/weekly", h.handleWeekly)
		r.With(middleware.RequirePermission(auth.PermMenuRead, h.Perms)).Get("/today", h.handleToday)
		r.With(middleware.RequirePermission(auth.PermMenuWrite, h.Perms)).Put("/weekly/{day}", h.handleReplaceDay)
		r.With(middleware.RequirePermission(auth.PermMenuRead, h.Perms)).Get("/special", h.handleListSpecial)
		r.With(middleware.RequirePermission(auth.PermMenuWrite, h.Perms)).Post("/special", h.handleAddSpecial)
	})
}

func (h *Handler) handleWeekly(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Weekly(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "menu_load_failed", "failed to load menu", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, m, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	today, err := h.Service.Today(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "menu_load_failed", "failed to load menu", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, today, middleware.GetRequestID(r.Context()))
}

type replaceDayRequest struct {
	Particulars []menu.MealEntry `json:"particulars"`
}

func (h *Handler) handleReplaceDay(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		shared.FailField(w, middleware.GetRequestID(r.Context()), "day", "must be an integer between 0 and 6")
		return
	}

	var payload replaceDayRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	before, updated, err := h.Service.ReplaceDay(r.Context(), day, payload.Particulars, session.Creator())
	if err != nil {
		switch {
		case errors.Is(err, menu.ErrInvalidDay):
			shared.FailField(w, middleware.GetRequestID(r.Context()), "day", err.Error())
		case errors.Is(err, menu.ErrInvalidMeal):
			shared.FailField(w, middleware.GetRequestID(r.Context()), "particulars", err.Error())
		default:
			api.Fail(w, http.StatusInternalServerError, "menu_update_failed", "failed to update menu", middleware.GetRequestID(r.Context()))
		}
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    session.AdminID,
		Action:     audit.ActionMenuDayReplace,
		EntityType: "main_menu",
		EntityID:   strconv.Itoa(day),
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      updated.Days[day],
	}); err != nil {
		slog.Warn("audit menu.day.replace failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListSpecial(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	meals, err := h.Service.SpecialMeals(r.Context(), page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "special_meals_failed", "failed to list special meals", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, meals, middleware.GetRequestID(r.Context()))
}

type specialMealRequest struct {
	Date      string `json:"date"`
	MealIndex int    `json:"mealIndex"`
	Food      string `json:"food"`
}

func (h *Handler) handleAddSpecial(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload specialMealRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	date, _ := v.Date("date", payload.Date)
	v.Required("food", payload.Food, "food is required")
	if _, ok := menu.SlotAt(payload.MealIndex); !ok {
		v.Add("mealIndex", "must be between 0 and 3")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	meal, err := h.Service.AddSpecialMeal(r.Context(), date, payload.MealIndex, payload.Food)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "special_meal_create_failed", "failed to add special meal", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    session.AdminID,
		Action:     audit.ActionSpecialMealAdd,
		EntityType: "special_meal",
		EntityID:   meal.ID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		After:      meal,
	}); err != nil {
		slog.Warn("audit menu.special.add failed", "err", err)
	}
	api.Created(w, meal, middleware.GetRequestID(r.Context()))
}
