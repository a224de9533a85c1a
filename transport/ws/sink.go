package ws

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"community-live/domain/event"

	"github.com/gorilla/websocket"
)

const writeDeadline = 5 * time.Second

// wsSink is the per-connection delivery end of the fan-out. Consume and the
// private send helpers only enqueue; a single write pump goroutine owns the
// websocket writer, so frames never interleave.
//
// The buffer is the backpressure boundary: when a consumer is too slow to
// drain it, events for that connection are dropped instead of stalling the
// fan-out worker.
type wsSink struct {
	conn   *websocket.Conn
	log    *slog.Logger
	out    chan Envelope
	closed chan struct{}
	once   sync.Once
}

func newWsSink(conn *websocket.Conn, log *slog.Logger, bufferSize int) *wsSink {
	return &wsSink{
		conn:   conn,
		log:    log,
		out:    make(chan Envelope, bufferSize),
		closed: make(chan struct{}),
	}
}

// Consume implements the EventSink interface for broadcast events.
func (s *wsSink) Consume(ctx context.Context, e event.DomainEvent) error {
	var (
		envelope Envelope
		err      error
	)
	switch evt := e.(type) {
	case event.MessageStored:
		envelope, err = newEnvelope(EventMessage, fromStored(evt))
	case event.TypingChanged:
		envelope, err = newEnvelope(EventTyping, UserTypingPayload{
			UserID:  evt.UserID,
			GroupID: evt.Room,
			Typing:  evt.Typing,
		})
	default:
		return nil
	}
	if err != nil {
		return err
	}
	return s.enqueue(ctx, envelope)
}

// send queues a private frame (connected, joined_group, error, ...) to this
// connection only.
func (s *wsSink) send(name string, payload any) error {
	envelope, err := newEnvelope(name, payload)
	if err != nil {
		return err
	}
	return s.enqueue(context.Background(), envelope)
}

func (s *wsSink) enqueue(ctx context.Context, envelope Envelope) error {
	select {
	case <-s.closed:
		return fmt.Errorf("connection closed")
	case <-ctx.Done():
		return ctx.Err()
	case s.out <- envelope:
		return nil
	default:
		return fmt.Errorf("send buffer full, dropping %s", envelope.Event)
	}
}

// writePump owns the writer side until the sink closes or a write fails.
func (s *wsSink) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case envelope := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.conn.WriteJSON(envelope); err != nil {
				s.log.Debug("Write failed, closing sink", "error", err)
				s.close()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				s.close()
				return
			}
		case <-s.closed:
			return
		}
	}
}

func (s *wsSink) close() {
	s.once.Do(func() { close(s.closed) })
}
