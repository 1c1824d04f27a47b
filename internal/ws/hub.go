// Package ws implements the realtime chat relay. Messages are connection
// scoped: nothing is persisted and a peer that is not connected at broadcast
// time never sees the message.
package ws

import (
	"context"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

// Event is a frame exchanged with browser clients. Inbound frames carry only
// Message; outbound frames add the sender's display identity.
type Event struct {
	Type     string `json:"type,omitempty"`
	Message  string `json:"message,omitempty"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

const (
	eventWelcome = "welcome"
	eventChat    = "chatMessageFromServer"
)

type broadcast struct {
	sender *Client
	text   string
}

// Hub fans chat events out to every connected peer except the sender. All
// client-set mutations happen on the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcasts chan broadcast
	done       chan struct{}
	clients    map[*Client]struct{}
	sanitizer  *bluemonday.Policy
	logger     *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcasts: make(chan broadcast, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger,
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// after done closes, client goroutines stop sending to the hub
			close(h.done)
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			client.enqueue(Event{Type: eventWelcome, Username: client.username, Avatar: client.avatar})
			h.logger.WithFields(logrus.Fields{"conn": client.id, "username": client.username}).
				Info("chat client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case msg := <-h.broadcasts:
			text := h.sanitizer.Sanitize(msg.text)
			if text == "" {
				continue
			}
			event := Event{
				Type:     eventChat,
				Message:  text,
				Username: msg.sender.username,
				Avatar:   msg.sender.avatar,
			}
			for client := range h.clients {
				if client == msg.sender {
					continue
				}
				if !client.enqueue(event) {
					// a client that cannot keep up is cut loose
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}
