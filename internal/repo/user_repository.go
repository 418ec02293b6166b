package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/db"
	"github.com/KrushnaHarde/ChatNexus/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

// UserRepository owns user records and their presence fields. A lookup for an
// unknown username returns (nil, nil).
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Register(ctx context.Context, user *model.User) error
	SetPresence(ctx context.Context, username string, status model.PresenceStatus, lastSeen time.Time) error
	FindByStatus(ctx context.Context, status model.PresenceStatus) ([]model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Search(ctx context.Context, query string) ([]model.User, error)
}

func NewUserRepository(repo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("username", username).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error("user lookup failed",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find user failed: %w", err)
	}
	return user, nil
}

// Register creates the user record, or refreshes the display name if the
// username is already taken. Identity itself comes from the auth
// collaborator; this only keeps the local record in step.
func (r *userRepository) Register(ctx context.Context, user *model.User) error {
	if user == nil || user.Username == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("username", user.Username).Build()
	_, err := r.mongoRepo.Upsert(ctx, filter, bson.M{
		"username":   user.Username,
		"full_name":  user.FullName,
		"status":     user.Status,
		"last_seen":  user.LastSeen,
		"created_at": user.CreatedAt,
	})
	if err != nil {
		r.logger.Error("user registration failed",
			zap.String("username", user.Username),
			zap.Error(err),
		)
		return fmt.Errorf("register user failed: %w", err)
	}

	r.logger.Info("user registered", zap.String("username", user.Username))
	return nil
}

// SetPresence updates the presence fields of a single user record. An
// unknown username is a no-op; presence must never block messaging.
func (r *userRepository) SetPresence(ctx context.Context, username string, status model.PresenceStatus, lastSeen time.Time) error {
	if username == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("username", username).Build()
	result, err := r.mongoRepo.Update(ctx, filter, bson.M{
		"status":    status,
		"last_seen": lastSeen,
	})
	if err != nil {
		r.logger.Error("presence update failed",
			zap.String("username", username),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return fmt.Errorf("presence update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		r.logger.Debug("presence update for unknown user", zap.String("username", username))
	}
	return nil
}

func (r *userRepository) FindByStatus(ctx context.Context, status model.PresenceStatus) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	return r.mongoRepo.FindAll(ctx, db.NewFilter().Eq("status", status).Build())
}

func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	return r.mongoRepo.FindAll(ctx, db.Empty())
}

// Search finds users whose username contains the query, case-insensitive.
func (r *userRepository) Search(ctx context.Context, query string) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	return r.mongoRepo.FindAll(ctx, db.NewFilter().Contains("username", query).Build())
}
