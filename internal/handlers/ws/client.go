package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const writeWait = 10 * time.Second

// Conn is the part of a WebSocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Client is one WebSocket connection subscribed to one course. All writes go
// through its send buffer and are performed by WritePump.
type Client struct {
	UserID   uuid.UUID
	CourseID uuid.UUID

	conn      Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn Conn, userID, courseID uuid.UUID, buffer int) *Client {
	if buffer < 1 {
		buffer = 1
	}
	return &Client{
		UserID:   userID,
		CourseID: courseID,
		conn:     conn,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
	}
}

// Enqueue queues a frame without blocking. It reports false when the client
// is closed or its buffer is full; the frame is then dropped.
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// SendJSON queues v for this client only.
func (c *Client) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if !c.Enqueue(data) {
		log.Printf("Dropped direct frame for user %s in course %s", c.UserID, c.CourseID)
	}
	return nil
}

// Close stops the write pump. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// WritePump writes queued frames and periodic pings until the client is
// closed or a write fails. A failed write closes the connection so the
// reader notices and unsubscribes.
func (c *Client) WritePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("Write failed for user %s in course %s: %v", c.UserID, c.CourseID, err)
				c.Close()
				c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				log.Printf("Ping failed for user %s in course %s: %v", c.UserID, c.CourseID, err)
				c.Close()
				c.conn.Close()
				return
			}
		}
	}
}
