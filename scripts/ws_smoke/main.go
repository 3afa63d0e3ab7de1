package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/messagely/internal/proto"
)

// ws_smoke registers (or logs in) two users against a running server, opens
// the recipient's live feed, sends one message and waits for its event.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("addr", "http://localhost:8080", "server base URL")
	from := flag.String("from", "smoke-sender", "sender username")
	to := flag.String("to", "smoke-recipient", "recipient username")
	password := flag.String("password", "smoke-password", "password for both users")
	text := flag.String("text", "hello from smoke test", "message body to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	senderToken, err := session(ctx, *base, *from, *password)
	if err != nil {
		return fmt.Errorf("sender session: %w", err)
	}
	recipientToken, err := session(ctx, *base, *to, *password)
	if err != nil {
		return fmt.Errorf("recipient session: %w", err)
	}

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/api/ws?token=" + recipientToken
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	var frame struct {
		Type  string          `json:"type"`
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := wsjson.Read(ctx, conn, &frame); err != nil || frame.Event != proto.EventReady {
		return fmt.Errorf("expected ready frame, got %q: %v", frame.Event, err)
	}

	var sent struct {
		Message proto.Message `json:"message"`
	}
	body := map[string]string{"to_username": *to, "body": *text}
	if err := postJSON(ctx, *base+"/messages", senderToken, body, http.StatusCreated, &sent); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if frame.Event != proto.EventMessage {
			continue
		}
		var msg proto.MessageDetail
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if msg.ID == sent.Message.ID {
			fmt.Printf("ok: message %d from %s delivered: %q\n", msg.ID, msg.FromUser.Username, msg.Body)
			return nil
		}
	}
}

// session logs in, registering the user first when login fails.
func session(ctx context.Context, base, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	creds := map[string]string{"username": username, "password": password}
	if err := postJSON(ctx, base+"/auth/login", "", creds, http.StatusOK, &out); err == nil {
		return out.Token, nil
	}
	if err := postJSON(ctx, base+"/auth/register", "", creds, http.StatusCreated, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func postJSON(ctx context.Context, url, token string, body any, want int, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s: status %d: %s", url, resp.StatusCode, e.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
