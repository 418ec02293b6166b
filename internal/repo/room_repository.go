package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/db"
	"github.com/KrushnaHarde/ChatNexus/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type roomRepository struct {
	mongoRepo *db.Repository[model.Room]
	logger    *zap.Logger
}

// RoomRepository maps an unordered pair of user ids to a single stable room
// id. Resolve with createIfMissing=false never creates state; an absent room
// yields ("", nil), not an error.
type RoomRepository interface {
	Resolve(ctx context.Context, userA, userB string, createIfMissing bool) (string, error)
}

func NewRoomRepository(repo *db.Repository[model.Room], logger *zap.Logger) RoomRepository {
	return &roomRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *roomRepository) Resolve(ctx context.Context, userA, userB string, createIfMissing bool) (string, error) {
	if userA == "" || userB == "" {
		return "", ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	key := model.CanonicalRoomKey(userA, userB)

	exists, err := r.mongoRepo.Exists(ctx, db.NewFilter().Eq("_id", key).Build())
	if err != nil {
		r.logger.Error("room existence check failed",
			zap.String("room_id", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("room lookup failed: %w", err)
	}
	if exists {
		return key, nil
	}
	if !createIfMissing {
		r.logger.Debug("room not found", zap.String("room_id", key))
		return "", nil
	}

	// The room id is the document _id, so the unique _id index arbitrates
	// concurrent creation: the first writer inserts, later writers hit a
	// duplicate-key error and converge on the same id.
	_, err = r.mongoRepo.Create(ctx, model.NewRoom(userA, userB, time.Now()))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("room already created concurrently", zap.String("room_id", key))
			return key, nil
		}
		r.logger.Error("room creation failed",
			zap.String("room_id", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("room creation failed: %w", err)
	}

	r.logger.Info("room created",
		zap.String("room_id", key),
		zap.String("user_a", userA),
		zap.String("user_b", userB),
	)
	return key, nil
}
