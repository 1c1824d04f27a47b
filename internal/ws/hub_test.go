package ws

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(username, email string) *Client {
	return &Client{
		id:       username,
		username: username,
		avatar:   "https://gravatar.com/avatar/" + email,
		send:     make(chan Event, 16),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logrus.New())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case event := <-c.send:
		return event
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.id)
		return Event{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case event := <-c.send:
		t.Fatalf("client %s unexpectedly received %+v", c.id, event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_GreetsOnRegister(t *testing.T) {
	hub := startHub(t)
	alice := newTestClient("alice", "a")

	hub.register <- alice

	greeting := receive(t, alice)
	assert.Equal(t, eventWelcome, greeting.Type)
	assert.Equal(t, "alice", greeting.Username)
	assert.NotEmpty(t, greeting.Avatar)
}

func TestHub_FanOutExcludesSender(t *testing.T) {
	hub := startHub(t)
	alice := newTestClient("alice", "a")
	bob := newTestClient("bob", "b")
	carol := newTestClient("carol", "c")

	for _, c := range []*Client{alice, bob, carol} {
		hub.register <- c
		receive(t, c) // drain greeting
	}

	hub.broadcasts <- broadcast{sender: alice, text: "hello all"}

	for _, peer := range []*Client{bob, carol} {
		event := receive(t, peer)
		assert.Equal(t, eventChat, event.Type)
		assert.Equal(t, "hello all", event.Message)
		assert.Equal(t, "alice", event.Username)
		assert.Equal(t, alice.avatar, event.Avatar)
	}
	assertSilent(t, alice)
}

func TestHub_SanitizesChatMessages(t *testing.T) {
	hub := startHub(t)
	alice := newTestClient("alice", "a")
	bob := newTestClient("bob", "b")

	hub.register <- alice
	hub.register <- bob
	receive(t, alice)
	receive(t, bob)

	hub.broadcasts <- broadcast{sender: alice, text: `<script>steal()</script><b>hi</b> there`}

	event := receive(t, bob)
	assert.Equal(t, "hi there", event.Message)
}

func TestHub_DropsMarkupOnlyMessages(t *testing.T) {
	hub := startHub(t)
	alice := newTestClient("alice", "a")
	bob := newTestClient("bob", "b")

	hub.register <- alice
	hub.register <- bob
	receive(t, alice)
	receive(t, bob)

	hub.broadcasts <- broadcast{sender: alice, text: "<script>only()</script>"}
	assertSilent(t, bob)
}

func TestHub_UnregisteredPeerNeverReceives(t *testing.T) {
	hub := startHub(t)
	alice := newTestClient("alice", "a")
	bob := newTestClient("bob", "b")

	hub.register <- alice
	receive(t, alice)

	hub.broadcasts <- broadcast{sender: alice, text: "before bob joins"}
	assertSilent(t, bob)

	hub.register <- bob
	greeting := receive(t, bob)
	require.Equal(t, eventWelcome, greeting.Type)
	// no replay of earlier messages
	assertSilent(t, bob)
}

func TestHub_ShutdownUnblocksConnectedClients(t *testing.T) {
	hub := NewHub(logrus.New())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	alice := newTestClient("alice", "a")
	hub.register <- alice
	receive(t, alice)

	cancel()

	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not signal shutdown")
	}

	// a client goroutine going away after Run returned must not hang
	finished := make(chan struct{})
	go func() {
		select {
		case hub.unregister <- alice:
		case <-hub.done:
		}
		select {
		case hub.broadcasts <- broadcast{sender: alice, text: "late"}:
		case <-hub.done:
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("client send blocked after hub shutdown")
	}

	// the hub closed alice's channel during teardown
	select {
	case _, open := <-alice.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("alice's send channel was not closed")
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := startHub(t)
	alice := newTestClient("alice", "a")
	bob := newTestClient("bob", "b")

	hub.register <- alice
	hub.register <- bob
	receive(t, alice)
	receive(t, bob)

	hub.unregister <- bob

	// the hub closes the channel of a removed client
	select {
	case _, open := <-bob.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("bob's send channel was not closed")
	}
}
