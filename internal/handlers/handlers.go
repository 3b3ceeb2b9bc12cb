package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"quartier-watch/internal/database"
	"quartier-watch/internal/engine"
	"quartier-watch/internal/middleware"
	"quartier-watch/internal/models"
	"quartier-watch/internal/notify"
	"quartier-watch/internal/settings"
	"quartier-watch/internal/utils"
	"quartier-watch/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	MongoDB        *database.MongoDB
	Gate           *settings.Gate
	Hub            *websocket.Hub
	Notifier       *notify.Manager
	Metrics        *utils.MetricsCollector
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	engine *engine.Engine,
	mongodb *database.MongoDB,
	gate *settings.Gate,
	hub *websocket.Hub,
	notifier *notify.Manager,
	metrics *utils.MetricsCollector,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         engine,
		MongoDB:        mongodb,
		Gate:           gate,
		Hub:            hub,
		Notifier:       notifier,
		Metrics:        metrics,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// Routes registers every endpoint on a new mux. Auth and CORS are
// applied around the whole mux by the caller.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.HandleHealth())

	mux.HandleFunc("/auth/register", s.HandleRegister())
	mux.HandleFunc("/auth/login", s.HandleLogin())

	mux.HandleFunc("/user/profile", s.HandleUserProfile())
	mux.HandleFunc("/user/stats", s.HandleUserStats())

	mux.HandleFunc("/posts", s.HandlePosts())
	mux.HandleFunc("/posts/like", s.HandlePostLike())
	mux.HandleFunc("/posts/quota", s.HandlePostQuota())

	mux.HandleFunc("/alerts", s.HandleAlerts())
	mux.HandleFunc("/alerts/confirm", s.HandleAlertVote(true))
	mux.HandleFunc("/alerts/dispute", s.HandleAlertVote(false))

	mux.HandleFunc("/comments", s.HandleComments())
	mux.HandleFunc("/comments/like", s.HandleCommentLike())
	mux.HandleFunc("/replies", s.HandleReplies())
	mux.HandleFunc("/replies/like", s.HandleReplyLike())

	mux.HandleFunc("/reports", s.HandleReports())

	mux.HandleFunc("/admin/users", s.HandleAdminUsers())
	mux.HandleFunc("/admin/users/status", s.HandleAdminUserStatus())
	mux.HandleFunc("/admin/posts", s.HandleAdminPosts())
	mux.HandleFunc("/admin/alerts", s.HandleAdminAlerts())
	mux.HandleFunc("/admin/settings", s.HandleAdminSettings())
	mux.HandleFunc("/admin/settings/reset", s.HandleAdminSettingsReset())
	mux.HandleFunc("/admin/alerts/review", s.HandleAlertReview())
	mux.HandleFunc("/admin/reports/resolve", s.HandleReportResolve())
	mux.HandleFunc("/admin/deletions", s.HandleAdminDeletionLogs())
	mux.HandleFunc("/admin/deletions/stats", s.HandleAdminDeletionStats())
	mux.HandleFunc("/admin/stats", s.HandleAdminStats())

	mux.HandleFunc("/ws", s.HandleWebSocket())

	return mux
}

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondAppError maps an AppError code to its HTTP status.
func respondAppError(w http.ResponseWriter, appErr *utils.AppError) {
	http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
}

// respondGateError writes a policy-gate rejection.
func respondGateError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*utils.AppError); ok {
		respondAppError(w, appErr)
		return
	}
	http.Error(w, err.Error(), http.StatusForbidden)
}

// requestActor sends msg to pid and unwraps the reply, translating
// AppError replies and future timeouts for the HTTP layer.
func (s *Server) requestActor(w http.ResponseWriter, pid *actor.PID, msg interface{}) (interface{}, bool) {
	s.Metrics.IncrementRequests()

	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		s.Metrics.IncrementErrors()
		http.Error(w, "Request timed out", http.StatusGatewayTimeout)
		return nil, false
	}

	if appErr, ok := result.(*utils.AppError); ok {
		s.Metrics.IncrementErrors()
		respondAppError(w, appErr)
		return nil, false
	}

	return result, true
}

// currentUser resolves the authenticated user from the request context
// and rejects blocked or deactivated accounts.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return nil, false
	}

	user, err := s.MongoDB.GetUser(r.Context(), userID)
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			respondAppError(w, appErr)
		} else {
			http.Error(w, "Failed to load user", http.StatusInternalServerError)
		}
		return nil, false
	}

	if err := s.Gate.CheckUser(user); err != nil {
		respondGateError(w, err)
		return nil, false
	}

	return user, true
}

// requireAdmin is currentUser plus an admin check.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return nil, false
	}
	if !user.IsAdmin {
		http.Error(w, "Admin access required", http.StatusForbidden)
		return nil, false
	}
	return user, true
}
