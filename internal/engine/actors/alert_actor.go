package actors

import (
	"log"
	"sync"
	"time"

	stdctx "context"

	"quartier-watch/internal/models"
	"quartier-watch/internal/quota"
	"quartier-watch/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for alert operations
type (
	CreateAlertMsg struct {
		AuthorID   uuid.UUID
		AuthorName string
		Quartier   string
		Category   models.AlertCategory
		Message    string
		Location   *models.Location
		Radius     models.Radius
	}

	ConfirmAlertMsg struct {
		AlertID uuid.UUID
		UserID  uuid.UUID
	}

	DisputeAlertMsg struct {
		AlertID uuid.UUID
		UserID  uuid.UUID
	}

	GetAlertMsg struct {
		AlertID uuid.UUID
	}

	GetQuartierAlertsMsg struct {
		Quartier string
	}

	ReviewAlertMsg struct {
		AlertID uuid.UUID
		AdminID uuid.UUID
		Status  models.AlertStatus
	}

	DeleteAlertMsg struct {
		AlertID   uuid.UUID
		ActorID   uuid.UUID
		ActorName string
		IsAdmin   bool
	}
)

// ConsensusResult is the reply to a confirm or dispute.
type ConsensusResult struct {
	Alert    *models.Alert
	Promoted bool
}

// AlertStore is the persistence the alert actors need.
type AlertStore interface {
	SaveAlert(ctx stdctx.Context, alert *models.Alert) error
	GetAlert(ctx stdctx.Context, id uuid.UUID) (*models.Alert, error)
	GetAlertsByQuartier(ctx stdctx.Context, quartier string) ([]*models.Alert, error)
	RecordConsensusVote(ctx stdctx.Context, alertID, userID uuid.UUID, confirm bool) (*models.Alert, error)
	PromoteAlertStatus(ctx stdctx.Context, alertID uuid.UUID, to models.AlertStatus) (bool, error)
	UpdateAlertStatus(ctx stdctx.Context, alertID uuid.UUID, status models.AlertStatus, adminID uuid.UUID) error
	DeleteAlert(ctx stdctx.Context, alertID uuid.UUID) error
	InsertDeletionLog(ctx stdctx.Context, entry *models.DeletionLog) error
}

// AlertSupervisor owns one child actor per live alert so that all
// consensus votes on an alert are processed one at a time. Creation,
// listing and deletion are handled here directly.
type AlertSupervisor struct {
	alertActors map[uuid.UUID]*actor.PID
	mu          sync.RWMutex
	store       AlertStore
	limiter     *quota.Limiter
	metrics     *utils.MetricsCollector
}

func NewAlertSupervisor(store AlertStore, limiter *quota.Limiter, metrics *utils.MetricsCollector) actor.Actor {
	return &AlertSupervisor{
		alertActors: make(map[uuid.UUID]*actor.PID),
		store:       store,
		limiter:     limiter,
		metrics:     metrics,
	}
}

func (s *AlertSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("AlertSupervisor started")

	case *CreateAlertMsg:
		s.handleCreate(context, msg)

	case *ConfirmAlertMsg:
		s.forwardVote(context, msg.AlertID, msg)

	case *DisputeAlertMsg:
		s.forwardVote(context, msg.AlertID, msg)

	case *GetAlertMsg:
		ctx := stdctx.Background()
		alert, err := s.store.GetAlert(ctx, msg.AlertID)
		if err != nil {
			context.Respond(toAppError(err, utils.ErrAlertNotFound, "Alert not found"))
			return
		}
		context.Respond(alert)

	case *GetQuartierAlertsMsg:
		ctx := stdctx.Background()
		alerts, err := s.store.GetAlertsByQuartier(ctx, msg.Quartier)
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to list alerts", err))
			return
		}
		context.Respond(alerts)

	case *ReviewAlertMsg:
		s.handleReview(context, msg)

	case *DeleteAlertMsg:
		s.handleDelete(context, msg)

	default:
		log.Printf("AlertSupervisor: Unknown message type: %T", msg)
	}
}

func (s *AlertSupervisor) handleCreate(context actor.Context, msg *CreateAlertMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if !models.IsValidCategory(msg.Category) {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Unknown alert category", nil))
		return
	}
	if !models.IsValidQuartier(msg.Quartier) {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Unknown quartier", nil))
		return
	}

	cooldown := s.limiter.CheckAlertCooldown(ctx, msg.AuthorID)
	if !cooldown.Allowed {
		context.Respond(utils.NewCooldownActiveError(cooldown.MinutesRemaining))
		return
	}

	alert := &models.Alert{
		ID:          uuid.New(),
		AuthorID:    msg.AuthorID,
		AuthorName:  msg.AuthorName,
		Quartier:    msg.Quartier,
		Category:    msg.Category,
		Message:     msg.Message,
		Location:    msg.Location,
		Radius:      msg.Radius,
		Status:      models.StatusPending,
		ConfirmedBy: []uuid.UUID{},
		FalseBy:     []uuid.UUID{},
		CreatedAt:   time.Now(),
	}

	if err := s.store.SaveAlert(ctx, alert); err != nil {
		log.Printf("AlertSupervisor: Failed to persist alert %s: %v", alert.ID, err)
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to create alert", err))
		return
	}

	log.Printf("AlertSupervisor: Created %s alert %s in %s", alert.Category, alert.ID, alert.Quartier)

	s.spawnAlertActor(context, alert.ID)
	s.metrics.AddOperationLatency("create_alert", time.Since(startTime))
	context.Respond(alert)
}

func (s *AlertSupervisor) forwardVote(context actor.Context, alertID uuid.UUID, msg interface{}) {
	pid, err := s.getOrCreateAlertActor(context, alertID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrAlertNotFound, "Alert not found"))
		return
	}

	future := context.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		context.Respond(utils.NewActorTimeoutError("alert"))
		return
	}
	context.Respond(result)
}

func (s *AlertSupervisor) handleReview(context actor.Context, msg *ReviewAlertMsg) {
	ctx := stdctx.Background()
	if err := s.store.UpdateAlertStatus(ctx, msg.AlertID, msg.Status, msg.AdminID); err != nil {
		context.Respond(toAppError(err, utils.ErrAlertNotFound, "Alert not found"))
		return
	}

	alert, err := s.store.GetAlert(ctx, msg.AlertID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrAlertNotFound, "Alert not found"))
		return
	}
	log.Printf("AlertSupervisor: Admin %s set alert %s to %s", msg.AdminID, msg.AlertID, msg.Status)
	context.Respond(alert)
}

func (s *AlertSupervisor) handleDelete(context actor.Context, msg *DeleteAlertMsg) {
	ctx := stdctx.Background()

	alert, err := s.store.GetAlert(ctx, msg.AlertID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrAlertNotFound, "Alert not found"))
		return
	}
	if alert.AuthorID != msg.ActorID && !msg.IsAdmin {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the author or an admin can delete an alert", nil))
		return
	}

	if err := s.store.DeleteAlert(ctx, msg.AlertID); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to delete alert", err))
		return
	}

	// Audit is best effort; the delete already happened.
	logEntry := &models.DeletionLog{
		ID:        uuid.New(),
		Type:      models.DeletedAlert,
		ItemID:    alert.ID,
		ActorID:   msg.ActorID,
		ActorName: msg.ActorName,
		Snapshot: map[string]interface{}{
			"quartier":   alert.Quartier,
			"category":   string(alert.Category),
			"status":     string(alert.Status),
			"authorId":   alert.AuthorID.String(),
			"authorName": alert.AuthorName,
		},
		DeletedAt: time.Now(),
	}
	if err := s.store.InsertDeletionLog(ctx, logEntry); err != nil {
		log.Printf("AlertSupervisor: Deletion log write failed for alert %s: %v", alert.ID, err)
	}

	s.mu.Lock()
	if pid, exists := s.alertActors[msg.AlertID]; exists {
		context.Stop(pid)
		delete(s.alertActors, msg.AlertID)
	}
	s.mu.Unlock()

	context.Respond(alert)
}

func (s *AlertSupervisor) spawnAlertActor(context actor.Context, alertID uuid.UUID) *actor.PID {
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewAlertActor(alertID, s.store, s.metrics)
	})
	pid := context.Spawn(props)

	s.mu.Lock()
	s.alertActors[alertID] = pid
	s.mu.Unlock()
	return pid
}

func (s *AlertSupervisor) getOrCreateAlertActor(context actor.Context, alertID uuid.UUID) (*actor.PID, error) {
	s.mu.RLock()
	pid, exists := s.alertActors[alertID]
	s.mu.RUnlock()
	if exists {
		return pid, nil
	}

	// Alert written by a previous process, or actor was stopped. Verify
	// it still exists before spawning.
	ctx := stdctx.Background()
	if _, err := s.store.GetAlert(ctx, alertID); err != nil {
		return nil, err
	}
	return s.spawnAlertActor(context, alertID), nil
}

// AlertActor serializes the consensus votes of a single alert. The store
// write is conditional as well, so even a vote raced from another process
// cannot double-count or re-transition a terminal status.
type AlertActor struct {
	alertID uuid.UUID
	store   AlertStore
	metrics *utils.MetricsCollector
}

func NewAlertActor(alertID uuid.UUID, store AlertStore, metrics *utils.MetricsCollector) actor.Actor {
	return &AlertActor{
		alertID: alertID,
		store:   store,
		metrics: metrics,
	}
}

func (a *AlertActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started, *actor.Stopping, *actor.Stopped, *actor.Restarting:
		// lifecycle only

	case *ConfirmAlertMsg:
		a.handleVote(context, msg.UserID, true)

	case *DisputeAlertMsg:
		a.handleVote(context, msg.UserID, false)

	default:
		log.Printf("AlertActor %s: Unknown message type: %T", a.alertID, msg)
	}
}

func (a *AlertActor) handleVote(context actor.Context, userID uuid.UUID, confirm bool) {
	startTime := time.Now()
	ctx := stdctx.Background()

	alert, err := a.store.RecordConsensusVote(ctx, a.alertID, userID, confirm)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrDatabase, "Failed to record vote"))
		return
	}

	promoted := false
	count, target := alert.FalseCount, models.StatusDisputed
	if confirm {
		count, target = alert.ConfirmCount, models.StatusConfirmed
	}
	if alert.Status == models.StatusPending && count >= models.ConsensusThreshold {
		promoted, err = a.store.PromoteAlertStatus(ctx, a.alertID, target)
		if err != nil {
			log.Printf("AlertActor %s: Promotion failed: %v", a.alertID, err)
			promoted = false
		}
		if promoted {
			alert.Status = target
			log.Printf("AlertActor %s: Status promoted to %s after %d votes", a.alertID, target, count)
		}
	}

	op := "dispute_alert"
	if confirm {
		op = "confirm_alert"
	}
	a.metrics.AddOperationLatency(op, time.Since(startTime))
	context.Respond(&ConsensusResult{Alert: alert, Promoted: promoted})
}

// toAppError passes an existing *AppError through and wraps anything
// else under the given code.
func toAppError(err error, code string, message string) *utils.AppError {
	if appErr, ok := err.(*utils.AppError); ok {
		return appErr
	}
	return utils.NewAppError(code, message, err)
}
