package service

import (
	"context"
	"errors"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/db"
	"github.com/KrushnaHarde/ChatNexus/internal/event"
	"github.com/KrushnaHarde/ChatNexus/internal/model"
	"github.com/KrushnaHarde/ChatNexus/internal/repo"

	"go.uber.org/zap"
)

// BulkFailure reports a single failed item of a bulk transition. Sibling
// items are unaffected by the failure.
type BulkFailure struct {
	MessageID string
	Err       error
}

// MessageService drives the message lifecycle: room resolution, initial
// status assignment, and the SENT -> DELIVERED -> READ transitions. All
// notifications are published after the corresponding store write.
type MessageService interface {
	Send(ctx context.Context, msg *model.Message) (*model.Message, error)
	MarkDelivered(ctx context.Context, messageID string) error
	MarkDeliveredBulk(ctx context.Context, msgs []model.Message) []BulkFailure
	MarkRead(ctx context.Context, senderID, recipientID string) error
	MarkReadAndReturn(ctx context.Context, senderID, recipientID string) ([]model.Message, error)
	CountUnread(ctx context.Context, recipientID, senderID string) (int64, error)
	History(ctx context.Context, userA, userB string) ([]model.Message, error)
	HistoryPage(ctx context.Context, userA, userB string, page int64) (*db.PaginatedResult[model.Message], error)
	UndeliveredFor(ctx context.Context, recipientID string) ([]model.Message, error)
	FlushUndelivered(ctx context.Context, recipientID string) []BulkFailure
}

type messageService struct {
	messages  repo.MessageRepository
	rooms     repo.RoomRepository
	presence  PresenceService
	publisher Publisher
	logger    *zap.Logger
}

func NewMessageService(
	messages repo.MessageRepository,
	rooms repo.RoomRepository,
	presence PresenceService,
	publisher Publisher,
	logger *zap.Logger,
) MessageService {
	return &messageService{
		messages:  messages,
		rooms:     rooms,
		presence:  presence,
		publisher: publisher,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// Send
// -----------------------------------------------------------------------------

// Send resolves (or creates) the room, stamps the creation time and picks the
// initial status: DELIVERED when the recipient is online, SENT otherwise. A
// recipient disconnecting between the presence check and actual delivery
// leaves the stored status slightly optimistic; read receipts dominate the
// user-visible state, so that race is accepted.
func (s *messageService) Send(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg == nil {
		return nil, repo.ErrInvalidMessage
	}

	roomID, err := s.rooms.Resolve(ctx, msg.SenderID, msg.RecipientID, true)
	if err != nil {
		return nil, err
	}
	msg.RoomID = roomID

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if msg.Kind == "" {
		msg.Kind = model.KindText
	}

	if s.presence.IsOnline(ctx, msg.RecipientID) {
		msg.Status = model.StatusDelivered
	} else {
		msg.Status = model.StatusSent
	}

	stored, err := s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(event.MessageTopic(stored.RecipientID), event.Outbound{
		Event:   event.EventChatMessage,
		Payload: stored,
	})
	return stored, nil
}

// -----------------------------------------------------------------------------
// Delivery transitions
// -----------------------------------------------------------------------------

// MarkDelivered advances a single message to DELIVERED. A missing message id
// is silently ignored, and an already-DELIVERED or READ message is left
// untouched: the transition never regresses a status.
func (s *messageService) MarkDelivered(ctx context.Context, messageID string) error {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		s.logger.Debug("deliver for unknown message", zap.String("message_id", messageID))
		return nil
	}
	return s.deliver(ctx, msg)
}

// MarkDeliveredBulk applies the DELIVERED transition to each message
// independently. One failing item does not abort the rest.
func (s *messageService) MarkDeliveredBulk(ctx context.Context, msgs []model.Message) []BulkFailure {
	var failures []BulkFailure
	for i := range msgs {
		if err := s.deliver(ctx, &msgs[i]); err != nil {
			failures = append(failures, BulkFailure{
				MessageID: msgs[i].ID.Hex(),
				Err:       err,
			})
		}
	}
	return failures
}

func (s *messageService) deliver(ctx context.Context, msg *model.Message) error {
	if !msg.Status.CanAdvance(model.StatusDelivered) {
		return nil
	}

	msg.Status = model.StatusDelivered
	if err := s.messages.Replace(ctx, msg); err != nil {
		return err
	}

	s.publisher.Publish(event.StatusTopic(msg.SenderID), event.Outbound{
		Event: event.EventChatDelivered,
		Payload: event.MessageDelivered{
			MessageID:   msg.ID.Hex(),
			RoomID:      msg.RoomID,
			DeliveredTo: msg.RecipientID,
			DeliveredAt: time.Now(),
			Status:      msg.Status,
		},
	})
	return nil
}

// -----------------------------------------------------------------------------
// Read transitions
// -----------------------------------------------------------------------------

// MarkRead marks every message in the pair's room that is addressed to
// recipientID and not yet READ. No-op when the room does not exist.
func (s *messageService) MarkRead(ctx context.Context, senderID, recipientID string) error {
	msgs, err := s.roomMessages(ctx, senderID, recipientID)
	if err != nil || msgs == nil {
		return err
	}

	targets := Filter(msgs, func(m model.Message) bool {
		return m.RecipientID == recipientID && m.Status.CanAdvance(model.StatusRead)
	})

	var errs []error
	for i := range targets {
		if err := s.read(ctx, &targets[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MarkReadAndReturn is the directional variant: only messages authored by
// senderID and addressed to recipientID are marked. The mutated subset is
// returned for downstream read-receipt handling.
func (s *messageService) MarkReadAndReturn(ctx context.Context, senderID, recipientID string) ([]model.Message, error) {
	msgs, err := s.roomMessages(ctx, senderID, recipientID)
	if err != nil || msgs == nil {
		return nil, err
	}

	targets := Filter(msgs, func(m model.Message) bool {
		return m.SenderID == senderID &&
			m.RecipientID == recipientID &&
			m.Status.CanAdvance(model.StatusRead)
	})

	read := make([]model.Message, 0, len(targets))
	var errs []error
	for i := range targets {
		if err := s.read(ctx, &targets[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		read = append(read, targets[i])
	}
	return read, errors.Join(errs...)
}

func (s *messageService) read(ctx context.Context, msg *model.Message) error {
	now := time.Now()
	msg.Status = model.StatusRead
	msg.ReadAt = &now
	if err := s.messages.Replace(ctx, msg); err != nil {
		return err
	}

	s.publisher.Publish(event.StatusTopic(msg.SenderID), event.Outbound{
		Event: event.EventChatSeen,
		Payload: event.MessageSeen{
			MessageID: msg.ID.Hex(),
			RoomID:    msg.RoomID,
			SeenBy:    msg.RecipientID,
			SeenAt:    now,
		},
	})
	return nil
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// CountUnread counts SENT messages from senderID to recipientID. DELIVERED
// but unread messages are intentionally excluded: SENT means "never reached
// the device", which is a different signal from "delivered but not opened".
func (s *messageService) CountUnread(ctx context.Context, recipientID, senderID string) (int64, error) {
	return s.messages.CountByRecipientSenderStatus(ctx, recipientID, senderID, model.StatusSent)
}

// History returns the conversation in creation order, or an empty slice when
// the pair has no room yet.
func (s *messageService) History(ctx context.Context, userA, userB string) ([]model.Message, error) {
	msgs, err := s.roomMessages(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		return []model.Message{}, nil
	}
	return msgs, nil
}

func (s *messageService) HistoryPage(ctx context.Context, userA, userB string, page int64) (*db.PaginatedResult[model.Message], error) {
	roomID, err := s.rooms.Resolve(ctx, userA, userB, false)
	if err != nil {
		return nil, err
	}
	if roomID == "" {
		return &db.PaginatedResult[model.Message]{
			Data: []model.Message{},
			Page: page,
		}, nil
	}
	return s.messages.FindByRoomPaged(ctx, roomID, page)
}

func (s *messageService) UndeliveredFor(ctx context.Context, recipientID string) ([]model.Message, error) {
	return s.messages.FindByRecipientAndStatus(ctx, recipientID, model.StatusSent)
}

// FlushUndelivered pushes every stored-but-undelivered message to the
// recipient's topic and then marks them DELIVERED. Called when the recipient
// comes online.
func (s *messageService) FlushUndelivered(ctx context.Context, recipientID string) []BulkFailure {
	msgs, err := s.UndeliveredFor(ctx, recipientID)
	if err != nil {
		s.logger.Warn("undelivered lookup failed",
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		return nil
	}
	if len(msgs) == 0 {
		return nil
	}

	topic := event.MessageTopic(recipientID)
	for i := range msgs {
		s.publisher.Publish(topic, event.Outbound{
			Event:   event.EventChatMessage,
			Payload: msgs[i],
		})
	}
	return s.MarkDeliveredBulk(ctx, msgs)
}

// roomMessages resolves the pair's room without creating it. A nil slice
// with nil error means the room does not exist.
func (s *messageService) roomMessages(ctx context.Context, userA, userB string) ([]model.Message, error) {
	roomID, err := s.rooms.Resolve(ctx, userA, userB, false)
	if err != nil {
		return nil, err
	}
	if roomID == "" {
		return nil, nil
	}
	msgs, err := s.messages.FindByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}
