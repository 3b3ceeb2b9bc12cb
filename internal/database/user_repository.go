// internal/database/user_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"quartier-watch/internal/models"
	"quartier-watch/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserDocument represents user data in MongoDB.
type UserDocument struct {
	ID             string    `bson:"_id"`
	DisplayName    string    `bson:"displayName"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"hashedPassword"`
	Quartier       string    `bson:"quartier"`
	IsPremium      bool      `bson:"isPremium"`
	IsAdmin        bool      `bson:"isAdmin"`
	IsActive       bool      `bson:"isActive"`
	IsBlocked      bool      `bson:"isBlocked"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func userToDocument(user *models.User) *UserDocument {
	return &UserDocument{
		ID:             user.ID.String(),
		DisplayName:    user.DisplayName,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		Quartier:       user.Quartier,
		IsPremium:      user.IsPremium,
		IsAdmin:        user.IsAdmin,
		IsActive:       user.IsActive,
		IsBlocked:      user.IsBlocked,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func userToModel(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %v", err)
	}

	return &models.User{
		ID:             id,
		DisplayName:    doc.DisplayName,
		Email:          doc.Email,
		HashedPassword: doc.HashedPassword,
		Quartier:       doc.Quartier,
		IsPremium:      doc.IsPremium,
		IsAdmin:        doc.IsAdmin,
		IsActive:       doc.IsActive,
		IsBlocked:      doc.IsBlocked,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

// SaveUser creates or updates a user.
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	doc := userToDocument(user)
	opts := options.Update().SetUpsert(true)
	_, err := m.Users.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

// GetUser retrieves a user by their ID.
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", err)
	}
	if err != nil {
		return nil, err
	}

	return userToModel(&doc)
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no
// user has that email, so callers can treat absence as a normal case
// during registration.
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return userToModel(&doc)
}

// GetAllUsers retrieves every user, newest first.
func (m *MongoDB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		user, err := userToModel(&doc)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, cursor.Err()
}

// GetUsersByQuartier retrieves every user in a quartier.
func (m *MongoDB) GetUsersByQuartier(ctx context.Context, quartier string) ([]*models.User, error) {
	cursor, err := m.Users.Find(ctx, bson.M{"quartier": quartier})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		user, err := userToModel(&doc)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, cursor.Err()
}

// UserStatusPatch holds the admin-editable user flags. Nil fields are
// left untouched.
type UserStatusPatch struct {
	Quartier  *string
	IsPremium *bool
	IsAdmin   *bool
	IsActive  *bool
	IsBlocked *bool
}

// UpdateUserStatus applies a partial flag update to a user.
func (m *MongoDB) UpdateUserStatus(ctx context.Context, userID uuid.UUID, patch UserStatusPatch) error {
	set := bson.M{"updatedAt": time.Now()}
	if patch.Quartier != nil {
		set["quartier"] = *patch.Quartier
	}
	if patch.IsPremium != nil {
		set["isPremium"] = *patch.IsPremium
	}
	if patch.IsAdmin != nil {
		set["isAdmin"] = *patch.IsAdmin
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}
	if patch.IsBlocked != nil {
		set["isBlocked"] = *patch.IsBlocked
	}

	result, err := m.Users.UpdateOne(ctx, bson.M{"_id": userID.String()}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	return nil
}

// CountUsers returns the total user count, optionally filtered.
func (m *MongoDB) CountUsers(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return m.Users.CountDocuments(ctx, filter)
}
