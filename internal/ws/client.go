package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Identity is the display identity a connection authenticates as.
type Identity struct {
	Username string
	Avatar   string
}

// Authenticator resolves the identity behind an upgrade request, typically
// from the same session cookie the request/response surface uses.
type Authenticator func(r *http.Request) (Identity, bool)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const writeWait = 10 * time.Second

// Client is one connected peer. send is written only by the hub goroutine and
// closed by it on drop.
type Client struct {
	id       string
	username string
	avatar   string
	conn     *websocket.Conn
	send     chan Event
}

func (c *Client) enqueue(event Event) bool {
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// ServeWS upgrades the connection and attaches it to the hub. Connections
// with no session are never registered: they get no greeting and their frames
// are read and discarded until they go away.
func ServeWS(hub *Hub, authenticate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.WithError(err).Warn("websocket upgrade")
			return
		}

		identity, ok := authenticate(c.Request)
		if !ok {
			defer conn.Close()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}

		client := &Client{
			id:       uuid.NewString(),
			username: identity.Username,
			avatar:   identity.Avatar,
			conn:     conn,
			send:     make(chan Event, 16),
		}
		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		select {
		case hub.unregister <- c:
		case <-hub.done:
		}
		c.conn.Close()
	}()

	for {
		var event Event
		if err := c.conn.ReadJSON(&event); err != nil {
			hub.logger.WithField("conn", c.id).Info("chat client disconnected")
			return
		}
		select {
		case hub.broadcasts <- broadcast{sender: c, text: event.Message}:
		case <-hub.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for event := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
