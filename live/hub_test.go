package live

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(h *Hub, room string, buffer int) *Client {
	return &Client{
		ID:   "test-client",
		Hub:  h,
		Send: make(chan []byte, buffer),
		Room: room,
	}
}

// syncHub дожидается обработки предыдущей команды: канал без буфера,
// значит вторая отправка завершается только после конца первого case.
func syncHub(h *Hub) {
	h.Register <- &Client{Send: make(chan []byte, 1), Room: "sync"}
}

func receiveMessage(t *testing.T, c *Client) WebSocketMessage {
	t.Helper()
	select {
	case raw := <-c.Send:
		var msg WebSocketMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("failed to decode broadcast message: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("expected a broadcast message, none arrived")
		return WebSocketMessage{}
	}
}

func TestBroadcastReachesOnlyTheRoom(t *testing.T) {
	h := NewHub(testLogger())
	go h.Run()

	subscriber := newTestClient(h, CompetitionRoom(7), 4)
	outsider := newTestClient(h, CompetitionRoom(8), 4)
	h.Register <- subscriber
	h.Register <- outsider
	syncHub(h)

	h.BroadcastToRoom(CompetitionRoom(7), WebSocketMessage{
		Type:   EventLeaderboardUpdated,
		RoomID: CompetitionRoom(7),
	})

	msg := receiveMessage(t, subscriber)
	if msg.Type != EventLeaderboardUpdated {
		t.Fatalf("expected %s, got %s", EventLeaderboardUpdated, msg.Type)
	}
	if len(outsider.Send) != 0 {
		t.Fatalf("expected no message in the other room, got %d", len(outsider.Send))
	}
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	h := NewHub(testLogger())
	// Без Run: рассылка в никуда не должна трогать каналы хаба.
	h.BroadcastToRoom(CompetitionRoom(7), WebSocketMessage{Type: EventPayoutsSettled})
}

func TestBroadcastSkipsSlowClient(t *testing.T) {
	h := NewHub(testLogger())
	go h.Run()

	slow := newTestClient(h, CompetitionRoom(7), 1)
	h.Register <- slow
	syncHub(h)

	h.BroadcastToRoom(CompetitionRoom(7), WebSocketMessage{Type: EventLeaderboardUpdated})
	h.BroadcastToRoom(CompetitionRoom(7), WebSocketMessage{Type: EventCompetitionCompleted})

	if got := len(slow.Send); got != 1 {
		t.Fatalf("expected the overflow message dropped, got %d buffered", got)
	}
	msg := receiveMessage(t, slow)
	if msg.Type != EventLeaderboardUpdated {
		t.Fatalf("expected the first message kept, got %s", msg.Type)
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	h := NewHub(testLogger())
	go h.Run()

	client := newTestClient(h, CompetitionRoom(7), 4)
	h.Register <- client
	h.Unregister <- client
	syncHub(h)

	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatal("expected send channel closed after unregister")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected send channel closed, read blocked")
	}

	// Рассылка после отписки не паникует на закрытом канале.
	h.BroadcastToRoom(CompetitionRoom(7), WebSocketMessage{Type: EventLeaderboardUpdated})
}
