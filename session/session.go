// Package session owns the per-session conversation state: the original
// content side table, the prune timer, and the send, edit, delete and
// render workflows over the store and transport collaborators.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/unichat-app/unichat/chatcontext"
	"github.com/unichat-app/unichat/store"
	"github.com/unichat-app/unichat/types"
)

// ErrNotEditable is returned when editing anything but a user turn;
// assistant content is never composite and stays as the provider sent it.
var ErrNotEditable = errors.New("session: only user messages can be edited")

const defaultPruneInterval = 5 * time.Minute

// Reply is the transport result for one model round trip. MessageID is
// optional: when the backing service persisted the assistant turn itself
// it reports the id to use.
type Reply struct {
	Content   string
	MessageID string
}

// Transport sends an assembled payload to a model provider.
type Transport interface {
	SendToModel(ctx context.Context, outbound, model, conversationID string) (Reply, error)
}

// Options configures a new Session. Zero values fall back to defaults.
type Options struct {
	Settings      types.ContextSettings
	Model         string
	Capacity      int           // side table capacity
	PruneInterval time.Duration // side table prune cadence
}

// Session is the state holder for one user's conversations. All workflow
// methods are safe for the prune timer running alongside them, though the
// session is written by a single logical actor.
type Session struct {
	mu        sync.Mutex
	store     store.MessageStore
	transport Transport
	originals *chatcontext.OriginalStore
	settings  types.ContextSettings
	model     string
	tracked   map[string]bool // conversation ids seen by this session

	pruneEvery time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

func New(st store.MessageStore, tr Transport, opts Options) *Session {
	interval := opts.PruneInterval
	if interval <= 0 {
		interval = defaultPruneInterval
	}

	s := &Session{
		store:      st,
		transport:  tr,
		originals:  chatcontext.NewOriginalStore(opts.Capacity),
		settings:   opts.Settings,
		model:      opts.Model,
		tracked:    make(map[string]bool),
		pruneEvery: interval,
		done:       make(chan struct{}),
	}
	go s.pruneLoop()

	return s
}

// Close stops the prune timer. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Send encodes input against the current history snapshot, stores the
// user turn, and appends the provider reply. The user turn stays stored
// when the transport fails so the caller can retry without losing it.
func (s *Session) Send(ctx context.Context, conversationID, input string) (user, assistant types.Message, err error) {
	s.mu.Lock()
	s.tracked[conversationID] = true
	settings := s.settings
	model := s.model
	s.mu.Unlock()

	history, err := s.store.GetHistory(conversationID)
	if err != nil {
		return user, assistant, fmt.Errorf("loading history: %w", err)
	}

	enc := chatcontext.Encode(input, history, settings, s.originals)

	user = types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleUser,
		Content:   enc.Outbound,
		CreatedAt: time.Now(),
	}
	if err = s.store.AppendMessage(conversationID, user); err != nil {
		return user, assistant, fmt.Errorf("storing user turn: %w", err)
	}
	s.originals.Set(user.ID, enc.Original)

	log.WithFields(log.Fields{"conversation": conversationID, "model": model}).
		Debug("sending to model")

	reply, err := s.transport.SendToModel(ctx, enc.Outbound, model, conversationID)
	if err != nil {
		log.WithField("conversation", conversationID).Error(err)
		return user, assistant, err
	}

	id := reply.MessageID
	if id == "" {
		id = uuid.NewString()
	}
	assistant = types.Message{
		ID:        id,
		Role:      types.RoleAssistant,
		Content:   reply.Content,
		CreatedAt: time.Now(),
		Model:     model,
	}
	if err = s.store.AppendMessage(conversationID, assistant); err != nil {
		return user, assistant, fmt.Errorf("storing assistant turn: %w", err)
	}

	return user, assistant, nil
}

// Edit replaces a user turn with freshly typed text, re-encoding it
// against the already-clean history that precedes it.
func (s *Session) Edit(conversationID, messageID, newText string) error {
	s.mu.Lock()
	s.tracked[conversationID] = true
	settings := s.settings
	s.mu.Unlock()

	history, err := s.store.GetHistory(conversationID)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	at := -1
	for i := range history {
		if history[i].ID == messageID {
			at = i
			break
		}
	}
	if at < 0 {
		return store.ErrNoMessage
	}
	if history[at].Role != types.RoleUser {
		return ErrNotEditable
	}

	enc := chatcontext.Encode(newText, history[:at], settings, s.originals)
	if err := s.store.UpdateMessageContent(conversationID, messageID, enc.Outbound); err != nil {
		return fmt.Errorf("storing edited turn: %w", err)
	}
	s.originals.Set(messageID, enc.Original)

	return nil
}

// Delete removes a message and its side-table entry.
func (s *Session) Delete(conversationID, messageID string) error {
	s.mu.Lock()
	s.tracked[conversationID] = true
	s.mu.Unlock()

	if err := s.store.DeleteMessage(conversationID, messageID); err != nil {
		return err
	}
	s.originals.Delete(messageID)

	return nil
}

// Render returns the history with each content replaced by its clean
// display form.
func (s *Session) Render(conversationID string) ([]types.Message, error) {
	history, err := s.store.GetHistory(conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	for i := range history {
		history[i].Content = chatcontext.Extract(history[i].Content, history[i].ID, s.originals)
	}

	return history, nil
}

// Prune drops side-table entries for messages no longer present in any
// tracked conversation. The timer calls it periodically; callers may also
// invoke it after bulk mutations.
func (s *Session) Prune() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.tracked))
	for id := range s.tracked {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	live := make(map[string]bool)
	for _, cid := range ids {
		history, err := s.store.GetHistory(cid)
		if err != nil {
			log.WithField("conversation", cid).Warn("prune: ", err)
			continue
		}
		for _, m := range history {
			live[m.ID] = true
		}
	}

	s.originals.Prune(func(id string) bool { return live[id] })
}

// Settings returns the current context settings.
func (s *Session) Settings() types.ContextSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings
}

// SetSettings replaces the context settings for subsequent sends.
func (s *Session) SetSettings(settings types.ContextSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
}

// SetModel selects the model name passed to the transport.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = model
}

func (s *Session) pruneLoop() {
	ticker := time.NewTicker(s.pruneEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Prune()
		case <-s.done:
			return
		}
	}
}
