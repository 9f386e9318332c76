package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to join with")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(payload []byte, err error) error {
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		return nil
	}

	if err := send(proto.EncodeJoin(*user)); err != nil {
		return err
	}
	if err := send(proto.EncodeMessage(*user, *text)); err != nil {
		return err
	}

	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		ev, err := proto.Decode(payload)
		if err != nil {
			fmt.Printf("Raw data: %s\n", payload)
			return err
		}

		switch ev.Kind {
		case core.EventMessage:
			fmt.Printf("Message: user=%s text=%q ts=%s\n", ev.Username, ev.Text, ev.Timestamp.Format(time.RFC3339))
			if ev.Username == *user && ev.Text == *text {
				return nil
			}
		case core.EventUserJoined, core.EventUserLeft:
			fmt.Printf("%s: user=%s users=%v\n", ev.Kind, ev.Username, ev.Users)
		default:
			fmt.Printf("Ignored event tag %q\n", ev.Tag)
		}
	}
}
