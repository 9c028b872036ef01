package ws

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// one frame split over two messages, then echo everything received
		conn.WriteMessage(websocket.BinaryMessage, []byte{5, 0, 0})
		conn.WriteMessage(websocket.BinaryMessage, []byte{0, 1, 0, 0, 0, 9})
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			conn.WriteMessage(websocket.BinaryMessage, msg)
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s, err := Dial(context.Background(), url, StreamConf{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	got := make([]byte, 9)
	if _, err := io.ReadFull(s, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(got, []byte{5, 0, 0, 0, 1, 0, 0, 0, 9}) {
		t.Fatalf("read % x", got)
	}

	if _, err := s.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	echo := make([]byte, 3)
	if _, err := io.ReadFull(s, echo); err != nil || !bytes.Equal(echo, []byte{1, 2, 3}) {
		t.Fatalf("echo = % x, %v", echo, err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
