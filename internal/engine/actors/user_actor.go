package actors

import (
	"log"
	"strings"
	"time"

	stdctx "context"

	"quartier-watch/internal/models"
	"quartier-watch/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Message types for user operations
type (
	RegisterUserMsg struct {
		DisplayName string
		Email       string
		Password    string
		Quartier    string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID
	}

	UpdateProfileMsg struct {
		UserID      uuid.UUID
		DisplayName *string
		Quartier    *string
	}
)

// UserStore is the persistence the user actor needs.
type UserStore interface {
	SaveUser(ctx stdctx.Context, user *models.User) error
	GetUser(ctx stdctx.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx stdctx.Context, email string) (*models.User, error)
}

// UserActor owns account creation and credential checks. Serializing
// registrations through one mailbox closes the duplicate-email race
// without a unique index round trip.
type UserActor struct {
	store   UserStore
	metrics *utils.MetricsCollector
}

func NewUserActor(store UserStore, metrics *utils.MetricsCollector) actor.Actor {
	return &UserActor{
		store:   store,
		metrics: metrics,
	}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("UserActor started")

	case *RegisterUserMsg:
		a.handleRegister(context, msg)

	case *LoginMsg:
		a.handleLogin(context, msg)

	case *GetUserProfileMsg:
		ctx := stdctx.Background()
		user, err := a.store.GetUser(ctx, msg.UserID)
		if err != nil {
			context.Respond(toAppError(err, utils.ErrUserNotFound, "User not found"))
			return
		}
		context.Respond(user)

	case *UpdateProfileMsg:
		a.handleUpdateProfile(context, msg)

	default:
		log.Printf("UserActor: Unknown message type: %T", msg)
	}
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	if email == "" || msg.Password == "" || msg.DisplayName == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Display name, email and password are required", nil))
		return
	}
	if !models.IsValidQuartier(msg.Quartier) {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Unknown quartier", nil))
		return
	}

	existing, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Registration failed", err))
		return
	}
	if existing != nil {
		log.Printf("UserActor: Email already registered: %s", email)
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(msg.Password), bcrypt.DefaultCost)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Password hashing failed", err))
		return
	}

	now := time.Now()
	user := &models.User{
		ID:             uuid.New(),
		DisplayName:    msg.DisplayName,
		Email:          email,
		HashedPassword: string(hashed),
		Quartier:       msg.Quartier,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := a.store.SaveUser(ctx, user); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Registration failed", err))
		return
	}

	log.Printf("UserActor: Registered %s in %s", user.ID, user.Quartier)
	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	context.Respond(user)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	ctx := stdctx.Background()

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Login failed", err))
		return
	}
	if user == nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil))
		return
	}

	context.Respond(user)
}

func (a *UserActor) handleUpdateProfile(context actor.Context, msg *UpdateProfileMsg) {
	ctx := stdctx.Background()

	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(toAppError(err, utils.ErrUserNotFound, "User not found"))
		return
	}

	if msg.DisplayName != nil && *msg.DisplayName != "" {
		user.DisplayName = *msg.DisplayName
	}
	if msg.Quartier != nil {
		if !models.IsValidQuartier(*msg.Quartier) {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Unknown quartier", nil))
			return
		}
		user.Quartier = *msg.Quartier
	}
	user.UpdatedAt = time.Now()

	if err := a.store.SaveUser(ctx, user); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Profile update failed", err))
		return
	}
	context.Respond(user)
}
