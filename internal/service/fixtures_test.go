package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/vivahsetu/vivahsetu-backend/internal/config"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"github.com/vivahsetu/vivahsetu-backend/internal/presence"
	"github.com/vivahsetu/vivahsetu-backend/internal/repository"
	"github.com/vivahsetu/vivahsetu-backend/internal/testutil"
	"gorm.io/gorm"
)

type emitted struct {
	UserID  string
	Type    string
	Payload interface{}
}

// recordingEmitter captures every event in emission order
type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *recordingEmitter) Emit(userID, eventType string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{UserID: userID, Type: eventType, Payload: payload})
}

func (e *recordingEmitter) to(userID, eventType string) []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []emitted
	for _, ev := range e.events {
		if ev.UserID == userID && ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (e *recordingEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

// MockNotifier is a mock implementation of push.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	args := m.Called(deviceToken, title, body, data)
	return args.Error(0)
}

type chatFixture struct {
	db       *gorm.DB
	messages repository.MessageRepository
	presence *presence.Registry
	emitter  *recordingEmitter
	notifier *MockNotifier
	blocks   BlockService
	delivery DeliveryService
	chat     ChatService
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.SeedProfiles(t, db, "u1", "u2", "u3")

	f := &chatFixture{
		db:       db,
		messages: repository.NewMessageRepository(db),
		presence: presence.NewRegistry(),
		emitter:  &recordingEmitter{},
		notifier: &MockNotifier{},
	}
	profiles := repository.NewProfileRepository(db)
	f.blocks = NewBlockService(repository.NewBlockRepository(db), profiles, f.emitter)
	f.delivery = NewDeliveryService(f.messages, f.presence, f.emitter)
	f.chat = NewChatService(ChatDeps{
		Messages: f.messages,
		Profiles: profiles,
		Blocks:   f.blocks,
		Delivery: f.delivery,
		Presence: f.presence,
		Emitter:  f.emitter,
		Notifier: f.notifier,
	}, config.Default().Chat)
	return f
}

func (f *chatFixture) send(t *testing.T, from, to, text string) *domain.Message {
	t.Helper()
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	msg, err := f.chat.SendMessage(context.Background(), from, &domain.SendMessageRequest{ReceiverID: to, Text: text})
	if err != nil {
		t.Fatalf("send %s -> %s: %v", from, to, err)
	}
	return msg
}
