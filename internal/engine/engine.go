package engine

import (
	"quartier-watch/internal/database"
	"quartier-watch/internal/engine/actors"
	"quartier-watch/internal/quota"
	"quartier-watch/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine spawns the top-level actors and hands out their PIDs. All
// request handlers talk to the system through these four mailboxes.
type Engine struct {
	userActor       *actor.PID
	postActor       *actor.PID
	commentActor    *actor.PID
	alertSupervisor *actor.PID
}

func NewEngine(system *actor.ActorSystem, mongodb *database.MongoDB, limiter *quota.Limiter, metrics *utils.MetricsCollector) *Engine {
	context := system.Root

	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(mongodb, metrics)
	})
	userPID := context.Spawn(userProps)

	postProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(mongodb, limiter, metrics)
	})
	postPID := context.Spawn(postProps)

	commentProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommentActor(mongodb, metrics)
	})
	commentPID := context.Spawn(commentProps)

	alertProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewAlertSupervisor(mongodb, limiter, metrics)
	})
	alertPID := context.Spawn(alertProps)

	return &Engine{
		userActor:       userPID,
		postActor:       postPID,
		commentActor:    commentPID,
		alertSupervisor: alertPID,
	}
}

// GetUserActor returns the PID of the user actor.
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetPostActor returns the PID of the post actor.
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetCommentActor returns the PID of the comment actor.
func (e *Engine) GetCommentActor() *actor.PID {
	return e.commentActor
}

// GetAlertSupervisor returns the PID of the alert supervisor.
func (e *Engine) GetAlertSupervisor() *actor.PID {
	return e.alertSupervisor
}
