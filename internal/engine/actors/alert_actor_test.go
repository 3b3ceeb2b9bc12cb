package actors

import (
	"context"
	"sync"
	"testing"
	"time"

	"quartier-watch/internal/models"
	"quartier-watch/internal/quota"
	"quartier-watch/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnAlertSupervisor(store *fakeStore) (*actor.ActorSystem, *actor.PID) {
	system := actor.NewActorSystem()
	limiter := quota.NewLimiter(store, defaultTestPolicy())
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewAlertSupervisor(store, limiter, utils.NewMetricsCollector())
	})
	return system, system.Root.Spawn(props)
}

func createAlert(t *testing.T, system *actor.ActorSystem, pid *actor.PID, authorID uuid.UUID) *models.Alert {
	t.Helper()
	msg := &CreateAlertMsg{
		AuthorID:   authorID,
		AuthorName: "Aïcha",
		Quartier:   "Zogona",
		Category:   models.CategoryFire,
		Message:    "Smoke near the market",
		Location:   &models.Location{Latitude: 12.3714, Longitude: -1.5197, CapturedAt: time.Now()},
		Radius:     models.Radius600m,
	}

	future := system.Root.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	alert, ok := result.(*models.Alert)
	require.True(t, ok, "expected *models.Alert, got %T", result)
	return alert
}

func TestCreateAlertStartsPending(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	alert := createAlert(t, system, pid, uuid.New())
	assert.Equal(t, models.StatusPending, alert.Status)
	assert.Equal(t, 0, alert.ConfirmCount)
	assert.Equal(t, 0, alert.FalseCount)

	stored, err := store.GetAlert(context.Background(), alert.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestCreateAlertRejectsUnknownCategory(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	future := system.Root.RequestFuture(pid, &CreateAlertMsg{
		AuthorID: uuid.New(),
		Quartier: "Zogona",
		Category: models.AlertCategory("EARTHQUAKE"),
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}

func TestCreateAlertEnforcesCooldown(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	authorID := uuid.New()
	createAlert(t, system, pid, authorID)

	// Second alert inside the 30 minute window.
	future := system.Root.RequestFuture(pid, &CreateAlertMsg{
		AuthorID: authorID,
		Quartier: "Zogona",
		Category: models.CategoryIntrusion,
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected cooldown rejection, got %T", result)
	assert.Equal(t, utils.ErrCooldownActive, appErr.Code)

	// A different author is not affected.
	other := createAlert(t, system, pid, uuid.New())
	assert.Equal(t, models.StatusPending, other.Status)
}

func confirmAlert(t *testing.T, system *actor.ActorSystem, pid *actor.PID, alertID, userID uuid.UUID) interface{} {
	t.Helper()
	future := system.Root.RequestFuture(pid, &ConfirmAlertMsg{AlertID: alertID, UserID: userID}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result
}

func TestThirdConfirmationPromotesAlert(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	alert := createAlert(t, system, pid, uuid.New())

	for i := 1; i <= 2; i++ {
		result := confirmAlert(t, system, pid, alert.ID, uuid.New())
		vote, ok := result.(*ConsensusResult)
		require.True(t, ok)
		assert.False(t, vote.Promoted)
		assert.Equal(t, models.StatusPending, vote.Alert.Status)
		assert.Equal(t, i, vote.Alert.ConfirmCount)
	}

	result := confirmAlert(t, system, pid, alert.ID, uuid.New())
	vote, ok := result.(*ConsensusResult)
	require.True(t, ok)
	assert.True(t, vote.Promoted)
	assert.Equal(t, models.StatusConfirmed, vote.Alert.Status)

	stored, err := store.GetAlert(context.Background(), alert.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestConcurrentConfirmationsAllLand(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	alert := createAlert(t, system, pid, uuid.New())

	const voters = 5
	results := make(chan interface{}, voters)
	errs := make(chan error, voters)

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			future := system.Root.RequestFuture(pid, &ConfirmAlertMsg{AlertID: alert.ID, UserID: uuid.New()}, 5*time.Second)
			result, err := future.Result()
			if err != nil {
				errs <- err
				return
			}
			results <- result
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("confirm failed: %v", err)
	}

	promotions := 0
	for result := range results {
		vote, ok := result.(*ConsensusResult)
		require.True(t, ok, "expected *ConsensusResult, got %T", result)
		if vote.Promoted {
			promotions++
		}
	}
	assert.Equal(t, 1, promotions, "exactly one vote should cross the threshold")

	stored, err := store.GetAlert(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.Equal(t, voters, stored.ConfirmCount)
	assert.Len(t, stored.ConfirmedBy, voters)
	assert.Equal(t, 0, stored.FalseCount)
}

func TestThirdDisputeMarksAlertDisputed(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	alert := createAlert(t, system, pid, uuid.New())

	for i := 0; i < 3; i++ {
		future := system.Root.RequestFuture(pid, &DisputeAlertMsg{AlertID: alert.ID, UserID: uuid.New()}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		vote, ok := result.(*ConsensusResult)
		require.True(t, ok)
		if i == 2 {
			assert.True(t, vote.Promoted)
			assert.Equal(t, models.StatusDisputed, vote.Alert.Status)
		}
	}
}

func TestDuplicateVoteRejected(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	alert := createAlert(t, system, pid, uuid.New())
	voter := uuid.New()

	confirmAlert(t, system, pid, alert.ID, voter)

	// Same user confirming again.
	result := confirmAlert(t, system, pid, alert.ID, voter)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected rejection, got %T", result)
	assert.Equal(t, utils.ErrAlreadyVoted, appErr.Code)

	// Same user switching sides is rejected too.
	future := system.Root.RequestFuture(pid, &DisputeAlertMsg{AlertID: alert.ID, UserID: voter}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrAlreadyVoted, appErr.Code)

	stored, _ := store.GetAlert(context.Background(), alert.ID)
	assert.Equal(t, 1, stored.ConfirmCount)
	assert.Equal(t, 0, stored.FalseCount)
}

func TestVotesAfterTerminalStatusKeepCounting(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	alert := createAlert(t, system, pid, uuid.New())
	for i := 0; i < 3; i++ {
		confirmAlert(t, system, pid, alert.ID, uuid.New())
	}

	// A fourth confirmation still lands but cannot re-promote, and a
	// dispute wave cannot flip a terminal status.
	result := confirmAlert(t, system, pid, alert.ID, uuid.New())
	vote, ok := result.(*ConsensusResult)
	require.True(t, ok)
	assert.False(t, vote.Promoted)
	assert.Equal(t, 4, vote.Alert.ConfirmCount)

	for i := 0; i < 3; i++ {
		future := system.Root.RequestFuture(pid, &DisputeAlertMsg{AlertID: alert.ID, UserID: uuid.New()}, 5*time.Second)
		_, err := future.Result()
		require.NoError(t, err)
	}

	stored, _ := store.GetAlert(context.Background(), alert.ID)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.Equal(t, 3, stored.FalseCount)
}

func TestVoteOnMissingAlert(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	result := confirmAlert(t, system, pid, uuid.New(), uuid.New())
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrAlertNotFound, appErr.Code)
}

func TestAdminReviewOverridesStatus(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	alert := createAlert(t, system, pid, uuid.New())

	future := system.Root.RequestFuture(pid, &ReviewAlertMsg{
		AlertID: alert.ID,
		AdminID: uuid.New(),
		Status:  models.StatusDisputed,
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	reviewed, ok := result.(*models.Alert)
	require.True(t, ok)
	assert.Equal(t, models.StatusDisputed, reviewed.Status)
}

func TestDeleteAlertAuthorizationAndAudit(t *testing.T) {
	store := newFakeStore()
	system, pid := spawnAlertSupervisor(store)
	defer system.Shutdown()

	authorID := uuid.New()
	alert := createAlert(t, system, pid, authorID)

	// A stranger cannot delete it.
	future := system.Root.RequestFuture(pid, &DeleteAlertMsg{
		AlertID: alert.ID,
		ActorID: uuid.New(),
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// The author can, and the audit entry is written.
	future = system.Root.RequestFuture(pid, &DeleteAlertMsg{
		AlertID:   alert.ID,
		ActorID:   authorID,
		ActorName: "Aïcha",
	}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	_, ok = result.(*models.Alert)
	require.True(t, ok)

	_, err = store.GetAlert(context.Background(), alert.ID)
	assert.Error(t, err)

	logs := store.logsOfType(models.DeletedAlert)
	require.Len(t, logs, 1)
	assert.Equal(t, alert.ID, logs[0].ItemID)
	assert.Equal(t, authorID, logs[0].ActorID)
}
