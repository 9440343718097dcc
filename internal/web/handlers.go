package web

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ladislavh/terminwatch/internal/db"
	"github.com/ladislavh/terminwatch/internal/remote"
	"github.com/ladislavh/terminwatch/internal/slot"
	"github.com/ladislavh/terminwatch/internal/watch"
	"github.com/ladislavh/terminwatch/internal/watcher"
	"github.com/ladislavh/terminwatch/internal/web/respond"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool     *db.Pool
	watchers *watcher.Store
	notified *slot.NotifiedStore
	remote   *remote.Client
	registry *watch.Registry
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewHandler creates a Handler with shared dependencies.
func NewHandler(pool *db.Pool, watchers *watcher.Store, notified *slot.NotifiedStore, rc *remote.Client, registry *watch.Registry, tmpl *template.Template, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pool:     pool,
		watchers: watchers,
		notified: notified,
		remote:   rc,
		registry: registry,
		tmpl:     tmpl,
		logger:   logger,
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("Template render failed", "template", name, "error", err)
	}
}

// Root serves the watcher creation form.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", nil)
}

// CreateWatcher handles the creation form: validates input, resolves the
// doctor, persists the watcher and starts its check task immediately.
func (h *Handler) CreateWatcher(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_FORM", "Neplatný formulár")
		return
	}

	form, err := parseCreateForm(r.PostForm, time.Now())
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	code, err := remote.ExtractDoctorCode(form.DoctorURL)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_URL", "Neplatná adresa lekára", err.Error())
		return
	}
	name := h.remote.FetchDoctorName(r.Context(), form.DoctorURL)

	created, err := h.watchers.Create(r.Context(), watcher.Watcher{
		DoctorName:       name,
		DoctorURL:        form.DoctorURL,
		DoctorCode:       code,
		TargetDates:      form.TargetDates,
		Channel:          form.Channel,
		TelegramBotToken: form.TelegramBotToken,
		TelegramChatID:   form.TelegramChatID,
		Email:            form.Email,
		Active:           true,
	})
	if err != nil {
		h.logger.Error("Watcher create failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "CREATE_FAILED", "Sledovanie sa nepodarilo vytvoriť")
		return
	}

	h.registry.Start(created.ID)
	h.logger.Info("Watcher created", "id", created.ID, "doctor", created.DoctorName)

	http.Redirect(w, r, "/w/"+created.PublicID, http.StatusSeeOther)
}

// watcherDetailData feeds the watcher.html template.
type watcherDetailData struct {
	Watcher  *watcher.Watcher
	Notified []slot.Notified
}

// ViewWatcher renders the status page of one watcher.
func (h *Handler) ViewWatcher(w http.ResponseWriter, r *http.Request) {
	wt, ok := h.lookupWatcher(w, r)
	if !ok {
		return
	}

	notified, err := h.notified.ListForWatcher(r.Context(), wt.ID)
	if err != nil {
		h.logger.Error("Notified slot list failed", "watcher_id", wt.ID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	// Newest notifications first, capped for the page.
	sort.Slice(notified, func(i, j int) bool {
		return notified[i].NotifiedAt.After(notified[j].NotifiedAt)
	})
	if len(notified) > 20 {
		notified = notified[:20]
	}

	h.render(w, "watcher.html", watcherDetailData{Watcher: wt, Notified: notified})
}

// ToggleWatcher flips the active flag and starts or stops the check task.
func (h *Handler) ToggleWatcher(w http.ResponseWriter, r *http.Request) {
	wt, ok := h.lookupWatcher(w, r)
	if !ok {
		return
	}

	next := !wt.Active
	if err := h.watchers.SetActive(r.Context(), wt.ID, next); err != nil {
		h.logger.Error("Watcher toggle failed", "watcher_id", wt.ID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}

	if next {
		h.registry.Start(wt.ID)
		h.logger.Info("Watcher activated", "id", wt.ID)
	} else {
		h.registry.Stop(wt.ID)
		h.logger.Info("Watcher deactivated", "id", wt.ID)
	}

	http.Redirect(w, r, "/w/"+wt.PublicID, http.StatusSeeOther)
}

// DeleteWatcher stops the check task and removes the watcher. Notified
// slots go with it via the foreign key cascade.
func (h *Handler) DeleteWatcher(w http.ResponseWriter, r *http.Request) {
	wt, ok := h.lookupWatcher(w, r)
	if !ok {
		return
	}

	h.registry.Stop(wt.ID)
	if err := h.watchers.Delete(r.Context(), wt.ID); err != nil {
		h.logger.Error("Watcher delete failed", "watcher_id", wt.ID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	h.logger.Info("Watcher deleted", "id", wt.ID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// notifiedSlotJSON is one row of the slots endpoint.
type notifiedSlotJSON struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	NotifiedAt string `json:"notified_at"`
}

// GetNotifiedSlots returns every notified slot of one watcher.
// @Summary Notified slots of a watcher
// @Description Returns all slots the watcher has sent a notification for, newest first.
// @Tags watchers
// @Produce json
// @Param publicID path string true "Watcher public ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /w/{publicID}/slots [get]
func (h *Handler) GetNotifiedSlots(w http.ResponseWriter, r *http.Request) {
	wt, ok := h.lookupWatcher(w, r)
	if !ok {
		return
	}

	notified, err := h.notified.ListForWatcher(r.Context(), wt.ID)
	if err != nil {
		h.logger.Error("Notified slot list failed", "watcher_id", wt.ID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	sort.Slice(notified, func(i, j int) bool {
		return notified[i].NotifiedAt.After(notified[j].NotifiedAt)
	})

	out := make([]notifiedSlotJSON, 0, len(notified))
	for _, n := range notified {
		out = append(out, notifiedSlotJSON{
			Date:       n.Slot.Date,
			Time:       n.Slot.Time,
			NotifiedAt: n.NotifiedAt.UTC().Format(time.RFC3339),
		})
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"slots": out})
}

// adminWatcherRow is one table row of the admin dashboard.
type adminWatcherRow struct {
	watcher.Watcher
	TargetDatesCount int
	SlotsCount       int
}

type adminData struct {
	Watchers       []adminWatcherRow
	TotalWatchers  int
	ActiveWatchers int
	TotalSlots     int
}

// Admin renders the dashboard over all watchers.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	all, err := h.watchers.List(r.Context())
	if err != nil {
		h.logger.Error("Watcher list failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	total, active, err := h.watchers.Counts(r.Context())
	if err != nil {
		h.logger.Error("Watcher counts failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	totalSlots, err := h.notified.CountAll(r.Context())
	if err != nil {
		h.logger.Error("Notified slot count failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}

	rows := make([]adminWatcherRow, 0, len(all))
	for _, wt := range all {
		slots, err := h.notified.CountForWatcher(r.Context(), wt.ID)
		if err != nil {
			h.logger.Warn("Per-watcher slot count failed", "watcher_id", wt.ID, "error", err)
		}
		rows = append(rows, adminWatcherRow{
			Watcher:          wt,
			TargetDatesCount: len(wt.TargetDates),
			SlotsCount:       slots,
		})
	}

	h.render(w, "admin.html", adminData{
		Watchers:       rows,
		TotalWatchers:  total,
		ActiveWatchers: active,
		TotalSlots:     totalSlots,
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"tasks":     h.registry.Count(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// lookupWatcher resolves the {publicID} URL parameter. Writes the error
// response itself and reports success via the bool.
func (h *Handler) lookupWatcher(w http.ResponseWriter, r *http.Request) (*watcher.Watcher, bool) {
	publicID := chi.URLParam(r, "publicID")
	wt, err := h.watchers.GetByPublicID(r.Context(), publicID)
	if errors.Is(err, watcher.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Watcher not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Watcher lookup failed", "public_id", publicID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return nil, false
	}
	return wt, true
}
