package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the console's link to a viewer session
type Conn interface {
	Send(line string) error
	Receive() (string, error)
	Close() error
}

// Client is a Conn over the server's websocket endpoint
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *Client) Receive() (string, error) {
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(msg), nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.mu.Unlock()
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
