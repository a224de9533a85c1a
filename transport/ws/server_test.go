package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"community-live/contract"
	"community-live/domain"
	"community-live/errors"
	"community-live/mocks"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func dialTestServer(t *testing.T, dispatcher contract.IDispatcher, token string) *websocket.Conn {
	t.Helper()
	server := NewServer(dispatcher, slog.Default(), 16)
	ts := httptest.NewServer(http.HandlerFunc(server.HandleWS))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var envelope Envelope
	require.NoError(t, conn.ReadJSON(&envelope))
	return envelope
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, name string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: name, Data: data}))
}

func TestServer_Connect_Acknowledges_Session(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	dispatcher := mocks.NewMockIDispatcher(ctrl)

	dispatcher.EXPECT().
		OnConnect("token-1", gomock.Any()).
		Return(domain.Session{ID: "session-1", UserID: "user-1"}, nil)
	dispatcher.EXPECT().OnDisconnect("session-1").AnyTimes()

	conn := dialTestServer(t, dispatcher, "token-1")

	// The first frame acknowledges the session
	envelope := readEnvelope(t, conn)
	req.Equal(EventConnected, envelope.Event)
	var connected ConnectedPayload
	req.NoError(json.Unmarshal(envelope.Data, &connected))
	req.Equal("session-1", connected.SID)
	req.Equal("user-1", connected.UserID)
}

func TestServer_Connect_Bad_Token_Gets_Error_Then_Close(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	dispatcher := mocks.NewMockIDispatcher(ctrl)

	dispatcher.EXPECT().
		OnConnect("garbage", gomock.Any()).
		Return(domain.Session{}, fmt.Errorf("%w: bad token", errors.ErrAuthentication))

	conn := dialTestServer(t, dispatcher, "garbage")

	envelope := readEnvelope(t, conn)
	req.Equal(EventError, envelope.Event)
	var failure ErrorPayload
	req.NoError(json.Unmarshal(envelope.Data, &failure))
	req.Equal("authentication failed", failure.Message)

	// Then the server hangs up
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := conn.ReadMessage()
	req.Error(err)
}

func TestServer_Join_Replays_History(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	dispatcher := mocks.NewMockIDispatcher(ctrl)

	dispatcher.EXPECT().
		OnConnect("token-1", gomock.Any()).
		Return(domain.Session{ID: "session-1", UserID: "user-1"}, nil)
	dispatcher.EXPECT().OnDisconnect("session-1").AnyTimes()
	dispatcher.EXPECT().
		OnJoin("session-1", "42").
		Return([]domain.ChatMessage{{Room: "42", Content: "earlier"}}, nil)

	conn := dialTestServer(t, dispatcher, "token-1")
	readEnvelope(t, conn) // connected

	writeEnvelope(t, conn, EventJoin, JoinPayload{GroupID: "42"})

	envelope := readEnvelope(t, conn)
	req.Equal(EventJoined, envelope.Event)
	var joined JoinedPayload
	req.NoError(json.Unmarshal(envelope.Data, &joined))
	req.Equal("42", joined.GroupID)
	req.Len(joined.Messages, 1)
	req.Equal("earlier", joined.Messages[0].Content)
}

func TestServer_Send_Failure_Becomes_Private_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	dispatcher := mocks.NewMockIDispatcher(ctrl)

	dispatcher.EXPECT().
		OnConnect("token-1", gomock.Any()).
		Return(domain.Session{ID: "session-1", UserID: "user-1"}, nil)
	dispatcher.EXPECT().OnDisconnect("session-1").AnyTimes()
	dispatcher.EXPECT().
		OnSend(gomock.Any(), "session-1", "42", "hello").
		Return(fmt.Errorf("%w: user user-1 in room 42", errors.ErrRateLimited))

	conn := dialTestServer(t, dispatcher, "token-1")
	readEnvelope(t, conn) // connected

	writeEnvelope(t, conn, EventSend, SendPayload{GroupID: "42", Content: "hello"})

	envelope := readEnvelope(t, conn)
	req.Equal(EventError, envelope.Event)
	var failure ErrorPayload
	req.NoError(json.Unmarshal(envelope.Data, &failure))
	req.Equal("too many messages, slow down", failure.Message)
}

func TestServer_Malformed_Payload_Is_Rejected(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	dispatcher := mocks.NewMockIDispatcher(ctrl)

	dispatcher.EXPECT().
		OnConnect("token-1", gomock.Any()).
		Return(domain.Session{ID: "session-1", UserID: "user-1"}, nil)
	dispatcher.EXPECT().OnDisconnect("session-1").AnyTimes()

	conn := dialTestServer(t, dispatcher, "token-1")
	readEnvelope(t, conn) // connected

	// join_group without a groupId never reaches the dispatcher
	writeEnvelope(t, conn, EventJoin, map[string]string{})

	envelope := readEnvelope(t, conn)
	req.Equal(EventError, envelope.Event)
	var failure ErrorPayload
	req.NoError(json.Unmarshal(envelope.Data, &failure))
	req.Equal("invalid request", failure.Message)
}

func TestServer_Typing_Start_And_Stop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	dispatcher := mocks.NewMockIDispatcher(ctrl)

	dispatcher.EXPECT().
		OnConnect("token-1", gomock.Any()).
		Return(domain.Session{ID: "session-1", UserID: "user-1"}, nil)
	dispatcher.EXPECT().OnDisconnect("session-1").AnyTimes()

	done := make(chan struct{})
	gomock.InOrder(
		dispatcher.EXPECT().OnTyping("session-1", "42", true).Return(nil),
		dispatcher.EXPECT().OnTyping("session-1", "42", false).
			DoAndReturn(func(string, string, bool) error {
				close(done)
				return nil
			}),
	)

	conn := dialTestServer(t, dispatcher, "token-1")
	readEnvelope(t, conn) // connected

	writeEnvelope(t, conn, EventTypeStart, TypingPayload{GroupID: "42"})
	writeEnvelope(t, conn, EventTypeStop, TypingPayload{GroupID: "42"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "Typing events did not reach the dispatcher in time")
	}
}
