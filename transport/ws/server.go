package ws

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"community-live/contract"
	"community-live/errors"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

const (
	defaultPingPeriod = 15 * time.Second
	maxFrameSize      = 1 << 20
)

// Server terminates the websocket connections and translates wire envelopes
// into dispatcher calls. One goroutine reads, one writes, per connection.
type Server struct {
	upgrader   websocket.Upgrader
	dispatcher contract.IDispatcher
	validate   *validator.Validate
	log        *slog.Logger
	bufferSize int
	pingPeriod time.Duration
}

func NewServer(dispatcher contract.IDispatcher, log *slog.Logger, bufferSize int) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		dispatcher: dispatcher,
		validate:   validator.New(),
		log:        log,
		bufferSize: bufferSize,
		pingPeriod: defaultPingPeriod,
	}
}

// HandleWS is the endpoint: GET /ws?token=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "error", err)
		return
	}

	sink := newWsSink(conn, s.log, s.bufferSize)
	go sink.writePump(s.pingPeriod)

	session, err := s.dispatcher.OnConnect(token, sink)
	if err != nil {
		s.log.Warn("Connection refused", "error", err)
		_ = sink.send(EventError, ErrorPayload{Message: userMessage(err)})
		// Leave the pump a moment to flush the refusal before closing.
		time.Sleep(50 * time.Millisecond)
		sink.close()
		_ = conn.Close()
		return
	}

	_ = sink.send(EventConnected, ConnectedPayload{SID: session.ID, UserID: session.UserID})

	s.readLoop(r, conn, sink, session.ID)

	// Every exit path lands here exactly once per connection.
	s.dispatcher.OnDisconnect(session.ID)
	sink.close()
	_ = conn.Close()
}

func (s *Server) readLoop(r *http.Request, conn *websocket.Conn, sink *wsSink, sessionID string) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * s.pingPeriod))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * s.pingPeriod))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			_ = sink.send(EventError, ErrorPayload{Message: "malformed frame"})
			continue
		}
		if err := s.handle(r, sink, sessionID, envelope); err != nil {
			_ = sink.send(EventError, ErrorPayload{Message: userMessage(err)})
		}
	}
}

func (s *Server) handle(r *http.Request, sink *wsSink, sessionID string, envelope Envelope) error {
	switch envelope.Event {
	case EventJoin, eventJoinAlias:
		var p JoinPayload
		if err := s.decode(envelope.Data, &p); err != nil {
			return err
		}
		history, err := s.dispatcher.OnJoin(sessionID, p.GroupID)
		if err != nil {
			return err
		}
		return sink.send(EventJoined, JoinedPayload{GroupID: p.GroupID, Messages: fromChatMessages(history)})

	case EventLeave, eventLeaveAlias:
		var p LeavePayload
		if err := s.decode(envelope.Data, &p); err != nil {
			return err
		}
		if err := s.dispatcher.OnLeave(sessionID, p.GroupID); err != nil {
			return err
		}
		return sink.send(EventLeft, LeftPayload{GroupID: p.GroupID})

	case EventSend, eventSendAlias:
		var p SendPayload
		if err := s.decode(envelope.Data, &p); err != nil {
			return err
		}
		return s.dispatcher.OnSend(r.Context(), sessionID, p.GroupID, p.Content)

	case EventTypeStart, EventTypeStop, eventTypeStartAlias, eventTypeStopAlias:
		var p TypingPayload
		if err := s.decode(envelope.Data, &p); err != nil {
			return err
		}
		typing := envelope.Event == EventTypeStart || envelope.Event == eventTypeStartAlias
		return s.dispatcher.OnTyping(sessionID, p.GroupID, typing)

	case EventFind:
		var p FindPayload
		if err := s.decode(envelope.Data, &p); err != nil {
			return err
		}
		results, err := s.dispatcher.OnFind(r.Context(), sessionID, p.GroupID, p.Terms)
		if err != nil {
			return err
		}
		return sink.send(EventSearchResults, SearchResultsPayload{GroupID: p.GroupID, Messages: fromChatMessages(results)})

	default:
		s.log.Debug("Unknown event", "event", envelope.Event)
		return nil
	}
}

func (s *Server) decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return errors.ErrValidation
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.ErrValidation
	}
	if err := s.validate.Struct(dst); err != nil {
		return errors.ErrValidation
	}
	return nil
}

// userMessage maps internal failures to the short strings clients display.
// Internal detail stays in the logs.
func userMessage(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrAuthentication):
		return "authentication failed"
	case stderrors.Is(err, errors.ErrValidation):
		return "invalid request"
	case stderrors.Is(err, errors.ErrRateLimited):
		return "too many messages, slow down"
	case stderrors.Is(err, errors.ErrRoomFull):
		return "group is full"
	case stderrors.Is(err, errors.ErrNotFound):
		return "not found"
	case stderrors.Is(err, errors.ErrPersistence):
		return "message could not be saved"
	default:
		return "internal error"
	}
}
