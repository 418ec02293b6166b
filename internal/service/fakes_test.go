package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KrushnaHarde/ChatNexus/internal/db"
	"github.com/KrushnaHarde/ChatNexus/internal/event"
	"github.com/KrushnaHarde/ChatNexus/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stands-ins for the Mongo repositories, exposing the same
// contracts: absent records read back as (nil, nil) / empty, replace of a
// missing record is a no-op.

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]bool
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]bool)}
}

func (f *fakeRoomRepo) Resolve(_ context.Context, a, b string, createIfMissing bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := model.CanonicalRoomKey(a, b)
	if f.rooms[key] {
		return key, nil
	}
	if !createIfMissing {
		return "", nil
	}
	f.rooms[key] = true
	return key, nil
}

type fakeMessageRepo struct {
	mu          sync.Mutex
	byID        map[string]model.Message
	order       []string
	replaceFail map[string]error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		byID:        make(map[string]model.Message),
		replaceFail: make(map[string]error),
	}
}

func (f *fakeMessageRepo) Insert(_ context.Context, msg *model.Message) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	id := msg.ID.Hex()
	f.byID[id] = *msg
	f.order = append(f.order, id)
	return msg, nil
}

func (f *fakeMessageRepo) Replace(_ context.Context, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := msg.ID.Hex()
	if err, ok := f.replaceFail[id]; ok {
		return err
	}
	if _, ok := f.byID[id]; !ok {
		return nil
	}
	f.byID[id] = *msg
	return nil
}

func (f *fakeMessageRepo) FindByID(_ context.Context, id string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &msg, nil
}

func (f *fakeMessageRepo) FindByRoom(ctx context.Context, roomID string) ([]model.Message, error) {
	return f.find(func(m model.Message) bool { return m.RoomID == roomID }), nil
}

func (f *fakeMessageRepo) FindByRoomPaged(ctx context.Context, roomID string, page int64) (*db.PaginatedResult[model.Message], error) {
	msgs, _ := f.FindByRoom(ctx, roomID)
	return &db.PaginatedResult[model.Message]{
		Data:  msgs,
		Total: int64(len(msgs)),
		Page:  page,
	}, nil
}

func (f *fakeMessageRepo) FindByRecipientAndStatus(_ context.Context, recipientID string, status model.MessageStatus) ([]model.Message, error) {
	return f.find(func(m model.Message) bool {
		return m.RecipientID == recipientID && m.Status == status
	}), nil
}

func (f *fakeMessageRepo) CountByRecipientSenderStatus(_ context.Context, recipientID, senderID string, status model.MessageStatus) (int64, error) {
	matched := f.find(func(m model.Message) bool {
		return m.RecipientID == recipientID && m.SenderID == senderID && m.Status == status
	})
	return int64(len(matched)), nil
}

func (f *fakeMessageRepo) find(match func(model.Message) bool) []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Message
	for _, id := range f.order {
		if m := f.byID[id]; match(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (f *fakeMessageRepo) get(id primitive.ObjectID) model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id.Hex()]
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUserRepo) Register(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.Username] = *user
	return nil
}

func (f *fakeUserRepo) SetPresence(_ context.Context, username string, status model.PresenceStatus, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[username]
	if !ok {
		return nil
	}
	u.Status = status
	u.LastSeen = lastSeen
	f.users[username] = u
	return nil
}

func (f *fakeUserRepo) FindByStatus(_ context.Context, status model.PresenceStatus) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.User
	for _, u := range f.users {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) FindAll(context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) Search(_ context.Context, query string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.User
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			out = append(out, u)
		}
	}
	return out, nil
}

type published struct {
	topic string
	ev    event.Outbound
}

// recordingPublisher captures published events; onPublish, when set, runs
// synchronously inside Publish so tests can observe store state at publish
// time.
type recordingPublisher struct {
	mu        sync.Mutex
	events    []published
	onPublish func(topic string, ev event.Outbound)
}

func (p *recordingPublisher) Publish(topic string, ev event.Outbound) {
	p.mu.Lock()
	p.events = append(p.events, published{topic: topic, ev: ev})
	p.mu.Unlock()
	if p.onPublish != nil {
		p.onPublish(topic, ev)
	}
}

func (p *recordingPublisher) byEvent(name string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []published
	for _, e := range p.events {
		if e.ev.Event == name {
			out = append(out, e)
		}
	}
	return out
}
