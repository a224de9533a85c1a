package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"community-live/contract"
	"community-live/domain"
	"community-live/domain/event"
	"community-live/errors"
	"community-live/moderation"
	"community-live/projection"

	"github.com/google/uuid"
)

// Limits bounds the per-operation knobs of the dispatcher.
type Limits struct {
	History          int
	MaxContentLength int
	Search           int
}

// Dispatcher is the connection-facing surface of the runtime. It owns the
// per-event pipelines and is the only producer on the domain event channel.
//
// A message is enqueued for broadcast only after durable storage succeeded,
// and the enqueue order is the storage order. The single fan-out consumer
// then preserves that order per room.
type Dispatcher struct {
	log       *slog.Logger
	registry  contract.IRegistry
	limiter   contract.IRateLimiter
	store     contract.IMessageStore
	tokens    contract.ITokenValidator
	profiles  contract.IProfileDirectory
	rooms     contract.IRoomDirectory
	index     contract.ISearchIndex
	moderator *moderation.Moderator
	timeline  *projection.Timeline
	events    chan<- event.DomainEvent
	limits    Limits
}

func NewDispatcher(
	log *slog.Logger,
	registry contract.IRegistry,
	limiter contract.IRateLimiter,
	store contract.IMessageStore,
	tokens contract.ITokenValidator,
	profiles contract.IProfileDirectory,
	rooms contract.IRoomDirectory,
	index contract.ISearchIndex,
	moderator *moderation.Moderator,
	timeline *projection.Timeline,
	events chan<- event.DomainEvent,
	limits Limits,
) *Dispatcher {
	return &Dispatcher{
		log:       log,
		registry:  registry,
		limiter:   limiter,
		store:     store,
		tokens:    tokens,
		profiles:  profiles,
		rooms:     rooms,
		index:     index,
		moderator: moderator,
		timeline:  timeline,
		events:    events,
		limits:    limits,
	}
}

// OnConnect authenticates the credential and registers a fresh session bound
// to the connection's sink. An invalid token never produces a session.
func (d *Dispatcher) OnConnect(token string, sink contract.EventSink) (domain.Session, error) {
	userID, err := d.tokens.Validate(token)
	if err != nil {
		return domain.Session{}, err
	}
	session, err := d.registry.Register(uuid.NewString(), userID, sink)
	if err != nil {
		return domain.Session{}, err
	}
	d.log.Info("Session connected", "session_id", session.ID, "user_id", userID)
	return session, nil
}

// OnDisconnect tears the session down whatever state it was in. Safe to call
// twice: the transport invokes it on every exit path.
func (d *Dispatcher) OnDisconnect(sessionID string) {
	d.registry.Unregister(sessionID)
	d.log.Info("Session disconnected", "session_id", sessionID)
}

// OnJoin runs the room gate, records the membership and returns the recent
// history for a private replay to the joining session only.
func (d *Dispatcher) OnJoin(sessionID, roomID string) ([]domain.ChatMessage, error) {
	userID, ok := d.registry.UserOf(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown session", errors.ErrAuthentication)
	}
	if roomID == "" {
		return nil, fmt.Errorf("%w: missing room id", errors.ErrValidation)
	}
	if err := d.rooms.CheckJoin(roomID, userID, len(d.registry.MembersOf(roomID))); err != nil {
		return nil, err
	}
	if err := d.registry.Join(sessionID, roomID); err != nil {
		return nil, err
	}
	d.log.Info("Session joined room", "session_id", sessionID, "room", roomID)

	// The hot cache usually has the tail already; fall back to disk after
	// a restart or for quiet rooms.
	if cached := d.timeline.Recent(roomID); len(cached) > 0 {
		return cached, nil
	}
	return d.store.Recent(roomID, d.limits.History)
}

func (d *Dispatcher) OnLeave(sessionID, roomID string) error {
	if _, ok := d.registry.UserOf(sessionID); !ok {
		return fmt.Errorf("%w: unknown session", errors.ErrAuthentication)
	}
	if err := d.registry.Leave(sessionID, roomID); err != nil {
		return err
	}
	d.log.Info("Session left room", "session_id", sessionID, "room", roomID)
	return nil
}

// OnSend is the message pipeline: authenticate, validate, resolve the sender,
// rate limit, censor, persist, then enqueue for broadcast. Any failure stops
// the pipeline before the next stage, so a rejected message is never stored
// and a stored message is always broadcast.
func (d *Dispatcher) OnSend(ctx context.Context, sessionID, roomID, content string) error {
	userID, ok := d.registry.UserOf(sessionID)
	if !ok {
		return fmt.Errorf("%w: unknown session", errors.ErrAuthentication)
	}
	if roomID == "" {
		return fmt.Errorf("%w: missing room id", errors.ErrValidation)
	}
	if !domain.HasContent(content) {
		return fmt.Errorf("%w: empty content", errors.ErrValidation)
	}
	if d.limits.MaxContentLength > 0 && len(content) > d.limits.MaxContentLength {
		return fmt.Errorf("%w: content exceeds %d bytes", errors.ErrValidation, d.limits.MaxContentLength)
	}

	sender, err := d.profiles.Get(userID)
	if err != nil {
		return fmt.Errorf("%w: sender %s", errors.ErrNotFound, userID)
	}

	if !d.limiter.Allow(userID, roomID) {
		d.log.Warn("Rate limit hit", "user_id", userID, "room", roomID)
		return fmt.Errorf("%w: user %s in room %s", errors.ErrRateLimited, userID, roomID)
	}

	censored, found := d.moderator.Censor(content)
	if len(found) > 0 {
		d.log.Info("Message censored",
			"user_id", userID, "room", roomID,
			"words", len(found), "language", moderation.DetectLanguage(content))
	}

	msg, err := d.store.Append(roomID, userID, censored, domain.DefaultMessageType)
	if err != nil {
		return err
	}

	return d.enqueue(ctx, event.MessageStored{
		ID:        msg.ID,
		Room:      msg.Room,
		Sender:    sender,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
}

// OnTyping relays an ephemeral indicator: no persistence, no rate limit, and
// the originating session is excluded from delivery.
func (d *Dispatcher) OnTyping(sessionID, roomID string, typing bool) error {
	userID, ok := d.registry.UserOf(sessionID)
	if !ok {
		return fmt.Errorf("%w: unknown session", errors.ErrAuthentication)
	}
	if roomID == "" {
		return fmt.Errorf("%w: missing room id", errors.ErrValidation)
	}
	return d.enqueue(context.Background(), event.TypingChanged{
		Room:           roomID,
		UserID:         userID,
		Typing:         typing,
		ExcludeSession: sessionID,
	})
}

// OnFind answers a full-text history query, privately to the asking session.
func (d *Dispatcher) OnFind(ctx context.Context, sessionID, roomID, terms string) ([]domain.ChatMessage, error) {
	if _, ok := d.registry.UserOf(sessionID); !ok {
		return nil, fmt.Errorf("%w: unknown session", errors.ErrAuthentication)
	}
	if roomID == "" || !domain.HasContent(terms) {
		return nil, fmt.Errorf("%w: missing room id or terms", errors.ErrValidation)
	}
	return d.index.Search(ctx, roomID, terms, d.limits.Search)
}

func (d *Dispatcher) enqueue(ctx context.Context, evt event.DomainEvent) error {
	select {
	case d.events <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
