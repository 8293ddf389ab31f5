package http

import (
	"errors"
	"sync"
	"time"

	"github.com/atinyakov/GophChat/internal/chat"
	"github.com/gorilla/websocket"
)

const (
	sendQueueSize  = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 8 << 10
)

var (
	errPeerClosed     = errors.New("peer closed")
	errPeerBacklogged = errors.New("peer send queue full")
)

// wsPeer adapts a websocket connection to chat.Sender. Outgoing events
// are queued and written by a single goroutine, so Send never blocks.
type wsPeer struct {
	conn *websocket.Conn
	out  chan chat.Message
	done chan struct{}
	once sync.Once
}

func newPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{
		conn: conn,
		out:  make(chan chat.Message, sendQueueSize),
		done: make(chan struct{}),
	}
}

// Send queues msg for delivery. It fails when the peer is closed or its
// queue is full.
func (p *wsPeer) Send(msg chat.Message) error {
	select {
	case <-p.done:
		return errPeerClosed
	default:
	}

	select {
	case p.out <- msg:
		return nil
	default:
		return errPeerBacklogged
	}
}

// writeLoop drains the queue and keeps the connection alive with pings
// until the peer is closed or a write fails.
func (p *wsPeer) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case msg := <-p.out:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(msg); err != nil {
				p.Close()
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.Close()
				return
			}
		}
	}
}

// Close stops the writer and closes the underlying connection. It is safe
// to call more than once.
func (p *wsPeer) Close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}
