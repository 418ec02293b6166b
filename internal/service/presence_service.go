package service

import (
	"context"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/event"
	"github.com/KrushnaHarde/ChatNexus/internal/model"
	"github.com/KrushnaHarde/ChatNexus/internal/repo"

	"go.uber.org/zap"
)

// PresenceService tracks each user's online/offline flag and last-seen time.
// Every transition is written to the store first and then broadcast on the
// presence topic.
type PresenceService interface {
	Connect(ctx context.Context, username string) error
	Disconnect(ctx context.Context, username string) error
	IsOnline(ctx context.Context, username string) bool
	Register(ctx context.Context, username, fullName string) (*model.User, error)
	ConnectedUsers(ctx context.Context) ([]model.User, error)
	AllUsers(ctx context.Context) ([]model.User, error)
	SearchUsers(ctx context.Context, query string) ([]model.User, error)
	GetUser(ctx context.Context, username string) (*model.User, error)
}

type presenceService struct {
	users     repo.UserRepository
	publisher Publisher
	logger    *zap.Logger
}

func NewPresenceService(users repo.UserRepository, publisher Publisher, logger *zap.Logger) PresenceService {
	return &presenceService{
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *presenceService) Connect(ctx context.Context, username string) error {
	return s.transition(ctx, username, model.PresenceOnline)
}

func (s *presenceService) Disconnect(ctx context.Context, username string) error {
	return s.transition(ctx, username, model.PresenceOffline)
}

func (s *presenceService) transition(ctx context.Context, username string, status model.PresenceStatus) error {
	now := time.Now()
	if err := s.users.SetPresence(ctx, username, status, now); err != nil {
		return err
	}

	s.publisher.Publish(event.TopicPresence, event.Outbound{
		Event: event.EventPresence,
		Payload: event.Presence{
			Username: username,
			Status:   status,
			LastSeen: now,
		},
	})
	return nil
}

// IsOnline is a point-in-time read. An unknown user is offline, and a store
// error is also reported as offline: presence is best-effort and must not
// block messaging.
func (s *presenceService) IsOnline(ctx context.Context, username string) bool {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Warn("presence check failed, assuming offline",
			zap.String("username", username),
			zap.Error(err),
		)
		return false
	}
	return user != nil && user.Status == model.PresenceOnline
}

func (s *presenceService) Register(ctx context.Context, username, fullName string) (*model.User, error) {
	user := &model.User{
		Username:  username,
		FullName:  fullName,
		Status:    model.PresenceOffline,
		LastSeen:  time.Now(),
		CreatedAt: time.Now(),
	}
	if err := s.users.Register(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *presenceService) ConnectedUsers(ctx context.Context) ([]model.User, error) {
	return s.users.FindByStatus(ctx, model.PresenceOnline)
}

func (s *presenceService) AllUsers(ctx context.Context) ([]model.User, error) {
	return s.users.FindAll(ctx)
}

func (s *presenceService) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	return s.users.Search(ctx, query)
}

func (s *presenceService) GetUser(ctx context.Context, username string) (*model.User, error) {
	return s.users.FindByUsername(ctx, username)
}
