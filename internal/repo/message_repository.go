package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/db"
	"github.com/KrushnaHarde/ChatNexus/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInvalidMessage = errors.New("invalid message: message cannot be nil")
	ErrInvalidUserID  = errors.New("invalid user ID: cannot be empty")
	ErrInvalidRoomID  = errors.New("invalid room ID: cannot be empty")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

// MessageRepository is the only write path for message records. Reads for a
// missing message return (nil, nil) so callers can treat it as already
// consistent.
type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) (*model.Message, error)
	Replace(ctx context.Context, msg *model.Message) error
	FindByID(ctx context.Context, id string) (*model.Message, error)
	FindByRoom(ctx context.Context, roomID string) ([]model.Message, error)
	FindByRoomPaged(ctx context.Context, roomID string, page int64) (*db.PaginatedResult[model.Message], error)
	FindByRecipientAndStatus(ctx context.Context, recipientID string, status model.MessageStatus) ([]model.Message, error)
	CountByRecipientSenderStatus(ctx context.Context, recipientID, senderID string, status model.MessageStatus) (int64, error)
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// Insert
// -----------------------------------------------------------------------------

func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg == nil {
		return nil, ErrInvalidMessage
	}
	if msg.RoomID == "" {
		return nil, ErrInvalidRoomID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				msg.ID = oid
			}
			m.logger.Info("message inserted",
				zap.String("message_id", msg.ID.Hex()),
				zap.String("room_id", msg.RoomID),
				zap.String("status", string(msg.Status)),
				zap.Int("attempt", attempt+1),
			)
			return msg, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("room_id", msg.RoomID),
	)
	return nil, fmt.Errorf("insert message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// Replace
// -----------------------------------------------------------------------------

// Replace overwrites the full record keyed by message id. Overwriting a
// message that no longer exists is a no-op, not an error.
func (m *messageRepository) Replace(ctx context.Context, msg *model.Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := m.mongoRepo.ReplaceByID(ctx, msg.ID, *msg)
	if err != nil {
		m.logger.Error("message replace failed",
			zap.String("message_id", msg.ID.Hex()),
			zap.Error(err),
		)
		return fmt.Errorf("replace message failed: %w", err)
	}
	if result.MatchedCount == 0 {
		m.logger.Debug("replace matched no document", zap.String("message_id", msg.ID.Hex()))
	}
	return nil
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (m *messageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	// an id that never was a valid ObjectID cannot reference a stored
	// message, so it reads back as absent
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		m.logger.Error("message lookup failed",
			zap.String("message_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find message failed: %w", err)
	}
	return msg, nil
}

// FindByRoom returns the room's messages in creation order.
func (m *messageRepository) FindByRoom(ctx context.Context, roomID string) ([]model.Message, error) {
	if roomID == "" {
		return nil, ErrInvalidRoomID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("room_id", roomID).Build()
	msgs, err := m.mongoRepo.FindAllSorted(ctx, filter, "created_at", false)
	if err != nil {
		m.logger.Error("room query failed",
			zap.String("room_id", roomID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find room messages failed: %w", err)
	}

	m.logger.Debug("room messages retrieved",
		zap.String("room_id", roomID),
		zap.Int("count", len(msgs)),
	)
	return msgs, nil
}

func (m *messageRepository) FindByRoomPaged(ctx context.Context, roomID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if roomID == "" {
		return nil, ErrInvalidRoomID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("room_id", roomID).Build()
	return m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
		Page:     page,
		PageSize: 50,
		SortBy:   "created_at",
		SortDesc: false,
	})
}

func (m *messageRepository) FindByRecipientAndStatus(ctx context.Context, recipientID string, status model.MessageStatus) ([]model.Message, error) {
	if recipientID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("recipient_id", recipientID).
		Eq("status", status).
		Build()
	msgs, err := m.mongoRepo.FindAllSorted(ctx, filter, "created_at", false)
	if err != nil {
		m.logger.Error("recipient/status query failed",
			zap.String("recipient_id", recipientID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find messages by recipient and status failed: %w", err)
	}
	return msgs, nil
}

func (m *messageRepository) CountByRecipientSenderStatus(ctx context.Context, recipientID, senderID string, status model.MessageStatus) (int64, error) {
	if recipientID == "" || senderID == "" {
		return 0, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("recipient_id", recipientID).
		Eq("sender_id", senderID).
		Eq("status", status).
		Build()
	return m.mongoRepo.Count(ctx, filter)
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}
