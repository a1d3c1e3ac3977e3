package dashboard

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal/analytics"
	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"
)

const (
	streamPingInterval = 25 * time.Second
	streamWriteTimeout = 10 * time.Second
)

type viewStore interface {
	View(ctx context.Context, owner string) (View, error)
	JSON(ctx context.Context, owner string, category exercises.Category) ([]byte, error)
	Watch(owner string) (<-chan View, func())
}

type PreviousBestResponse struct {
	ExerciseName string   `json:"exerciseName"`
	MaxWeight    *float64 `json:"maxWeight"`
}

type Handler struct {
	store          viewStore
	loader         snapshotLoader
	now            func() time.Time
	upgrader       websocket.Upgrader
	allowedOrigins map[string]bool
	pingInterval   time.Duration
}

func NewHandler(store viewStore, loader snapshotLoader, allowedOrigins []string, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}

	h := &Handler{
		store:          store,
		loader:         loader,
		now:            now,
		allowedOrigins: make(map[string]bool),
		pingInterval:   streamPingInterval,
	}
	for _, o := range allowedOrigins {
		h.allowedOrigins[o] = true
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: h.checkOrigin,
	}
	return h
}

func (handler *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(handler.allowedOrigins) == 0 {
		return true
	}
	return handler.allowedOrigins[origin]
}

// HandleDashboard serves the owner's dashboard view, optionally narrowed with ?category=.
func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.get")
	defer span.End()

	category, ok := parseCategoryParam(r)
	if !ok {
		http.Error(w, "error, unknown category", http.StatusBadRequest)
		return
	}

	owner, _ := auth.OwnerFromContext(ctx)
	if owner == "" {
		http.Error(w, "no valid session", http.StatusUnauthorized)
		return
	}

	viewBytes, err := handler.store.JSON(ctx, owner, category)
	if err != nil {
		log.Errorf("failed to get dashboard for %s: %s", owner, err)
		http.Error(w, "error, failed to get dashboard", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, viewBytes, http.StatusOK)
}

// HandleStream upgrades to a websocket and pushes the current view followed by every
// recomputed one until the client goes away. The view is also re-sent when the
// calendar day changes, since streaks and recent counts depend on it.
func (handler *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())
	if owner == "" {
		http.Error(w, "no valid session", http.StatusUnauthorized)
		return
	}

	category, ok := parseCategoryParam(r)
	if !ok {
		http.Error(w, "error, unknown category", http.StatusBadRequest)
		return
	}

	// watch before loading, so no recomputation between the two is lost
	updates, cancel := handler.store.Watch(owner)
	defer cancel()

	current, err := handler.store.View(r.Context(), owner)
	if err != nil {
		log.Errorf("failed to get dashboard for stream %s: %s", owner, err)
		http.Error(w, "error, failed to get dashboard", http.StatusInternalServerError)
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("dashboard stream upgrade for %s: %s", owner, err)
		return
	}
	defer conn.Close()

	log.Debugf("dashboard stream opened for %s", owner)

	// read loop ends on client close/error
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(v View) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(v.ForCategory(category))
	}

	if err := send(current); err != nil {
		log.Debugf("dashboard stream write for %s: %s", owner, err)
		return
	}

	day := analytics.DateKey(current.ComputedAt, current.ComputedAt.Location())

	ticker := time.NewTicker(handler.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Debugf("dashboard stream closed by %s", owner)
			return
		case <-r.Context().Done():
			return
		case v := <-updates:
			if err := send(v); err != nil {
				log.Debugf("dashboard stream write for %s: %s", owner, err)
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(streamWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}

			now := handler.now()
			if today := analytics.DateKey(now, now.Location()); today != day {
				v, err := handler.store.View(r.Context(), owner)
				if err != nil {
					log.Errorf("failed to refresh dashboard stream for %s: %s", owner, err)
					continue
				}
				day = today
				if err := send(v); err != nil {
					log.Debugf("dashboard stream write for %s: %s", owner, err)
					return
				}
			}
		}
	}
}

// HandleHistory returns the owner's records of the last 14 days grouped by day.
func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.history")
	defer span.End()

	owner, _ := auth.OwnerFromContext(ctx)
	records, err := handler.loader.Snapshot(ctx, owner)
	if err != nil {
		log.Errorf("failed to load history for %s: %s", owner, err)
		http.Error(w, "error, failed to get history", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, analytics.RecentHistory(records, handler.now()), http.StatusOK)
}

// HandlePreviousBest returns the highest weight logged for ?name=, null when never logged.
func (handler *Handler) HandlePreviousBest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.best")
	defer span.End()

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}

	owner, _ := auth.OwnerFromContext(ctx)
	records, err := handler.loader.Snapshot(ctx, owner)
	if err != nil {
		log.Errorf("failed to load records for best of %s [%s]: %s", owner, name, err)
		http.Error(w, "error, failed to get previous best", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, PreviousBestResponse{
		ExerciseName: name,
		MaxWeight:    analytics.PreviousBest(records, name),
	}, http.StatusOK)
}

func parseCategoryParam(r *http.Request) (exercises.Category, bool) {
	c := strings.TrimSpace(r.URL.Query().Get("category"))
	if c == "" || strings.EqualFold(c, "all") {
		return "", true
	}
	category, err := exercises.ParseCategory(c)
	if err != nil {
		return "", false
	}
	return category, true
}
