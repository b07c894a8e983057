package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/api"
)

var (
	// ErrUnexpectedFrame is returned when the peer sends a frame out of turn
	ErrUnexpectedFrame = errors.New("unexpected frame")
	// ErrPeerFailed is returned when the peer ends the session with an error
	ErrPeerFailed = errors.New("peer reported an error")
)

// Option configures a Conn
type Option func(*Conn)

// WithLogger sets the connection logger
func WithLogger(log *zap.Logger) Option {
	return func(c *Conn) { c.log = log }
}

// WithBreaker replaces the default call breaker
func WithBreaker(b *Breaker) Option {
	return func(c *Conn) { c.breaker = b }
}

// FrameObserver is told about every frame sent or received
type FrameObserver interface {
	RecordWSMessage(direction, msgType string)
}

// WithFrameObserver reports frames to o
func WithFrameObserver(o FrameObserver) Option {
	return func(c *Conn) { c.frames = o }
}

// WithCallTimeout bounds a single call when the caller context has no
// deadline
func WithCallTimeout(d time.Duration) Option {
	return func(c *Conn) { c.callTimeout = d }
}

// Conn is one end of a session
type Conn struct {
	ws          *websocket.Conn
	calls       sync.Mutex
	writes      sync.Mutex
	seq         atomic.Uint64
	breaker     *Breaker
	callTimeout time.Duration
	frames      FrameObserver
	log         *zap.Logger
}

var _ api.Channel = (*Conn)(nil)

// NewConn wraps an established WebSocket
func NewConn(ws *websocket.Conn, opts ...Option) *Conn {
	c := &Conn{ws: ws, callTimeout: 2 * time.Minute, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = NewBreaker(ws.RemoteAddr().String(), BreakerSettings{
			OnStateChange: func(name string, from, to State) {
				c.log.Warn("Channel breaker state changed",
					zap.String("peer", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
	return c
}

// Dial connects to a session endpoint
func Dial(ctx context.Context, url string, header http.Header, opts ...Option) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewConn(ws, opts...), nil
}

// Call sends a serialized capability call and waits for the reply.
// Calls are serialized per connection.
func (c *Conn) Call(ctx context.Context, request string) (string, error) {
	c.calls.Lock()
	defer c.calls.Unlock()

	if _, ok := ctx.Deadline(); !ok && c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	var reply string
	err := c.breaker.Execute(func() error {
		id := c.seq.Add(1)
		if err := c.Send(Frame{Type: FrameCall, ID: id, Data: request}); err != nil {
			return err
		}
		for {
			f, err := c.Receive(ctx)
			if err != nil {
				return err
			}
			switch f.Type {
			case FrameReply:
				if f.ID != id {
					c.log.Debug("Dropping stale reply", zap.Uint64("id", f.ID), zap.Uint64("want", id))
					continue
				}
				reply = f.Data
				return nil
			case FramePing:
				if err := c.Send(Frame{Type: FramePong}); err != nil {
					return err
				}
			case FrameError:
				return fmt.Errorf("%w: %s", ErrPeerFailed, f.Data)
			default:
				return fmt.Errorf("%w: %s while waiting for reply", ErrUnexpectedFrame, f.Type)
			}
		}
	})
	return reply, err
}

// Send writes one frame
func (c *Conn) Send(f Frame) error {
	payload, err := sonic.Marshal(f)
	if err != nil {
		return err
	}
	c.writes.Lock()
	err = c.ws.WriteMessage(websocket.TextMessage, payload)
	c.writes.Unlock()
	if err == nil && c.frames != nil {
		c.frames.RecordWSMessage("out", f.Type)
	}
	return err
}

// SendBody writes a frame whose body is v encoded as JSON
func (c *Conn) SendBody(typ string, v interface{}) error {
	body, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(Frame{Type: typ, Body: body})
}

// Receive reads the next frame, giving up when ctx is done
func (c *Conn) Receive(ctx context.Context) (Frame, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.ws.SetReadDeadline(deadline)
	} else {
		_ = c.ws.SetReadDeadline(time.Time{})
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.ws.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	_, payload, err := c.ws.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return Frame{}, ctx.Err()
		}
		if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
			return Frame{}, context.DeadlineExceeded
		}
		return Frame{}, err
	}

	var f Frame
	if err := sonic.Unmarshal(payload, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if c.frames != nil {
		c.frames.RecordWSMessage("in", f.Type)
	}
	return f, nil
}

// Close sends a close message and closes the socket
func (c *Conn) Close() error {
	c.writes.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writes.Unlock()
	return c.ws.Close()
}

// Responder answers capability calls on the owner side of a session
type Responder func(ctx context.Context, request string) string

// Answer serves calls with fn until the peer sends a result or error
// frame, which is returned.
func (c *Conn) Answer(ctx context.Context, fn Responder) (Frame, error) {
	for {
		f, err := c.Receive(ctx)
		if err != nil {
			return Frame{}, err
		}
		switch f.Type {
		case FrameCall:
			if err := c.Send(Frame{Type: FrameReply, ID: f.ID, Data: fn(ctx, f.Data)}); err != nil {
				return Frame{}, err
			}
		case FramePing:
			if err := c.Send(Frame{Type: FramePong}); err != nil {
				return Frame{}, err
			}
		case FrameResult, FrameError:
			return f, nil
		default:
			return Frame{}, fmt.Errorf("%w: %s", ErrUnexpectedFrame, f.Type)
		}
	}
}
