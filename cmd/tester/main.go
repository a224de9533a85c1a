package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"community-live/transport/ws"

	"github.com/gorilla/websocket"
)

// Small load client: opens N connections against a running server, joins one
// room and sends messages in a loop while counting what comes back.
func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "WebSocket endpoint")
	tokens := flag.String("tokens", "", "Comma separated tokens, one per connection")
	room := flag.String("room", "general", "Room to join")
	messages := flag.Int("messages", 10, "Messages per connection")
	flag.Parse()

	tokenList := splitTokens(*tokens)
	if len(tokenList) == 0 {
		log.Fatal("Usage: tester -tokens <t1,t2,...> [-url ...] [-room ...]")
	}

	var received atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for i, token := range tokenList {
		wg.Add(1)
		go func(id int, token string) {
			defer wg.Done()
			if err := runClient(*url, token, *room, id, *messages, &received); err != nil {
				log.Printf("client %d: %v", id, err)
			}
		}(i, token)
	}
	wg.Wait()

	fmt.Printf("\n--- [Results] ---\n")
	fmt.Printf("Connections: %d\n", len(tokenList))
	fmt.Printf("Sent: %d\n", len(tokenList)*(*messages))
	fmt.Printf("Broadcasts received: %d\n", received.Load())
	fmt.Printf("Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
}

func runClient(url, token, room string, id, messages int, received *atomic.Int64) error {
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Count inbound frames until the connection dies
	go func() {
		for {
			var envelope ws.Envelope
			if err := conn.ReadJSON(&envelope); err != nil {
				return
			}
			if envelope.Event == ws.EventMessage {
				received.Add(1)
			}
		}
	}()

	if err := send(conn, ws.EventJoin, ws.JoinPayload{GroupID: room}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	for n := 0; n < messages; n++ {
		payload := ws.SendPayload{
			GroupID: room,
			Content: fmt.Sprintf("load message %d from client %d", n, id),
		}
		if err := send(conn, ws.EventSend, payload); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	// Let the last broadcasts arrive before hanging up
	time.Sleep(time.Second)
	return nil
}

func send(conn *websocket.Conn, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(ws.Envelope{Event: name, Data: data})
}

func splitTokens(csv string) []string {
	var out []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
