package realtime

import (
	"testing"

	"github.com/google/uuid"

	"github.com/fitlio/coach-backend/internal/pkg/logger"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewHub(log)
}

func TestHub_BroadcastDeliversToSubscribers(t *testing.T) {
	hub := testHub(t)
	userID := uuid.New()
	client := hub.NewClient(userID)
	hub.Subscribe(client, UserChannel(userID))

	other := hub.NewClient(uuid.New())
	hub.Subscribe(other, UserChannel(other.UserID))

	hub.Broadcast(Message{Channel: UserChannel(userID), Event: EventCoachReply, Data: "hallo"})

	select {
	case msg := <-client.Outbound:
		if msg.Event != EventCoachReply || msg.Data != "hallo" {
			t.Fatalf("msg=%+v", msg)
		}
	default:
		t.Fatalf("subscriber did not receive the message")
	}
	select {
	case msg := <-other.Outbound:
		t.Fatalf("other user received %+v", msg)
	default:
	}
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := testHub(t)
	userID := uuid.New()
	client := hub.NewClient(userID)
	hub.Subscribe(client, UserChannel(userID))

	// Overfill the outbound buffer; the overflow must be dropped silently.
	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Broadcast(Message{Channel: UserChannel(userID), Event: EventCoachReply, Data: i})
	}

	if got := len(client.Outbound); got != cap(client.Outbound) {
		t.Fatalf("buffered=%d, want %d", got, cap(client.Outbound))
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := testHub(t)
	userID := uuid.New()
	client := hub.NewClient(userID)
	channel := UserChannel(userID)
	hub.Subscribe(client, channel)
	hub.Unsubscribe(client, channel)

	hub.Broadcast(Message{Channel: channel, Event: EventCoachReply})

	select {
	case msg := <-client.Outbound:
		t.Fatalf("unsubscribed client received %+v", msg)
	default:
	}
}

func TestHub_CloseClientSignalsDone(t *testing.T) {
	hub := testHub(t)
	client := hub.NewClient(uuid.New())
	hub.Subscribe(client, UserChannel(client.UserID))

	hub.CloseClient(client)

	select {
	case <-client.Done():
	default:
		t.Fatalf("done channel not closed")
	}
	// Closed clients are removed from every channel.
	hub.Broadcast(Message{Channel: UserChannel(client.UserID), Event: EventCoachReply})
}
