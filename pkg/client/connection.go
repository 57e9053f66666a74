package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aeolun/parley/pkg/protocol"
	"github.com/gorilla/websocket"
)

// SessionState represents the connection lifecycle state
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateTerminated
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

const (
	defaultConnectTimeout       = 10 * time.Second
	defaultHeartbeatInterval    = 30 * time.Second
	defaultHeartbeatAckTimeout  = 5 * time.Second
	defaultReconnectDelay       = 1 * time.Second
	defaultMaxReconnectDelay    = 30 * time.Second
	defaultMaxReconnectAttempts = 5

	closeGracePeriod = 100 * time.Millisecond

	heartbeatPing = "ping"
	heartbeatPong = "pong"
)

var (
	ErrNotConnected   = errors.New("not connected")
	ErrTerminated     = errors.New("session terminated")
	ErrSendBufferFull = errors.New("outgoing queue full")
	ErrNotAnImage     = errors.New("payload is not a recognized image")
	ErrImageTooLarge  = errors.New("image exceeds the 10MB upload limit")
)

// Event is something the connection reports to the UI loop. The set of
// implementations is closed; consumers switch over the concrete types.
type Event interface {
	connectionEvent()
}

// ConnectedEvent fires once the first session is established.
type ConnectedEvent struct{}

// ReconnectingEvent fires before each reconnect attempt, carrying the
// backoff delay that precedes it.
type ReconnectingEvent struct {
	Attempt int
	Delay   time.Duration
}

// ReconnectedEvent fires when a reconnect attempt succeeds.
type ReconnectedEvent struct {
	Attempts int
}

// DisconnectedEvent fires when the active transport is lost. Clean marks a
// normal close frame from the server, which suppresses reconnection.
type DisconnectedEvent struct {
	Err   error
	Clean bool
}

// TerminatedEvent fires after the reconnect attempt cap is exhausted. The
// session is permanently down; only a process restart recovers.
type TerminatedEvent struct {
	Attempts int
}

// ServerEvent wraps a decoded server message.
type ServerEvent struct {
	Message protocol.ServerMessage
}

// ImageEvent carries an accepted binary image frame.
type ImageEvent struct {
	Data   []byte
	Format protocol.ImageFormat
}

// ParseErrorEvent reports an inbound text frame that failed to decode. The
// session stays up.
type ParseErrorEvent struct {
	Err error
}

func (ConnectedEvent) connectionEvent()    {}
func (ReconnectingEvent) connectionEvent() {}
func (ReconnectedEvent) connectionEvent()  {}
func (DisconnectedEvent) connectionEvent() {}
func (TerminatedEvent) connectionEvent()   {}
func (ServerEvent) connectionEvent()       {}
func (ImageEvent) connectionEvent()        {}
func (ParseErrorEvent) connectionEvent()   {}

// Transport is the message-level surface of a websocket connection.
// *websocket.Conn satisfies it directly; tests substitute fakes.
type Transport interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialFunc opens a fresh transport. The context bounds the handshake.
type DialFunc func(ctx context.Context) (Transport, error)

type outFrame struct {
	messageType int
	data        []byte
	tag         string
}

// Connection owns exactly one transport at a time and runs the session
// state machine: connect timeout, heartbeat, and capped exponential
// reconnection. All observations flow to the UI through Events().
type Connection struct {
	addr string
	dial DialFunc

	mu         sync.Mutex
	transport  Transport
	state      SessionState
	generation uint64
	stop       chan struct{} // closed when the current transport is torn down
	ackTimer   *time.Timer   // armed while a ping awaits its pong

	events   chan Event
	outgoing chan outFrame

	// Tunables, defaulted in NewConnection
	autoReconnect        bool
	connectTimeout       time.Duration
	heartbeatInterval    time.Duration
	heartbeatAckTimeout  time.Duration
	reconnectDelay       time.Duration
	maxReconnectDelay    time.Duration
	maxReconnectAttempts int

	// Traffic counters (bytes on the wire)
	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64

	logger  *log.Logger
	metrics *Metrics

	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewConnection creates a connection around a dial function. addr is only
// used for display and logging.
func NewConnection(addr string, dial DialFunc) *Connection {
	return &Connection{
		addr:                 addr,
		dial:                 dial,
		events:               make(chan Event, 256),
		outgoing:             make(chan outFrame, 100),
		autoReconnect:        true,
		connectTimeout:       defaultConnectTimeout,
		heartbeatInterval:    defaultHeartbeatInterval,
		heartbeatAckTimeout:  defaultHeartbeatAckTimeout,
		reconnectDelay:       defaultReconnectDelay,
		maxReconnectDelay:    defaultMaxReconnectDelay,
		maxReconnectAttempts: defaultMaxReconnectAttempts,
		shutdown:             make(chan struct{}),
	}
}

// SetLogger sets a logger for debugging connection events
func (c *Connection) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// SetMetrics attaches a metrics recorder. May stay nil.
func (c *Connection) SetMetrics(m *Metrics) {
	c.metrics = m
}

// DisableAutoReconnect disables automatic reconnection on connection loss
func (c *Connection) DisableAutoReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoReconnect = false
}

// logf logs a message if a logger is set
func (c *Connection) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Connect establishes the first session. A dial failure here is returned
// synchronously and does not start background retries; losses after a
// successful connect recover through the reconnect loop instead.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateTerminated:
		c.mu.Unlock()
		return ErrTerminated
	case StateConnecting, StateConnected, StateReconnecting:
		c.mu.Unlock()
		return fmt.Errorf("already connected")
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	c.logf("Connecting to %s...", c.addr)

	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	t, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		c.logf("Connection failed: %v", err)
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.adopt(t)
	c.logf("Connected successfully to %s", c.addr)
	c.emit(ConnectedEvent{})
	return nil
}

// adopt installs a fresh transport and starts its read and write loops.
func (c *Connection) adopt(t Transport) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.transport = t
	c.stop = make(chan struct{})
	stop := c.stop
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	c.wg.Add(2)
	go c.readLoop(t, gen)
	go c.writeLoop(t, gen, stop)
}

// Close shuts the connection down permanently. The write loop flushes a
// normal close frame first so the server sees a clean goodbye. Safe to
// call more than once.
func (c *Connection) Close() {
	c.shutdownOnce.Do(func() {
		c.logf("Closing connection")
		close(c.shutdown)

		// Give the write loop a moment to flush the close frame and the
		// server to answer it before forcing the socket shut.
		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(closeGracePeriod):
		}

		c.mu.Lock()
		c.stopHeartbeatLocked()
		t := c.transport
		c.transport = nil
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()

		if t != nil {
			t.Close()
		}
		c.wg.Wait()
	})
}

// Send encodes and enqueues a client message. Fails fast when the session
// is not connected.
func (c *Connection) Send(msg protocol.ClientMessage) error {
	data, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Tag(), err)
	}
	return c.enqueue(outFrame{messageType: websocket.TextMessage, data: data, tag: msg.Tag()})
}

// SendImage enqueues a raw binary image frame. The payload must carry a
// recognized image signature and fit the upload cap.
func (c *Connection) SendImage(data []byte) error {
	if _, ok := protocol.SniffImage(data); !ok {
		return ErrNotAnImage
	}
	if len(data) > protocol.MaxImageBytes {
		return ErrImageTooLarge
	}
	return c.enqueue(outFrame{messageType: websocket.BinaryMessage, data: data, tag: "image"})
}

func (c *Connection) enqueue(f outFrame) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state != StateConnected {
		return ErrNotConnected
	}

	select {
	case c.outgoing <- f:
		return nil
	case <-c.shutdown:
		return ErrNotConnected
	default:
		return ErrSendBufferFull
	}
}

// Events returns the channel the UI loop consumes.
func (c *Connection) Events() <-chan Event {
	return c.events
}

// State returns the current session state.
func (c *Connection) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected returns whether the session is currently up.
func (c *Connection) IsConnected() bool {
	return c.State() == StateConnected
}

// GetAddress returns the server address
func (c *Connection) GetAddress() string {
	return c.addr
}

// GetBytesSent returns the total bytes sent
func (c *Connection) GetBytesSent() uint64 {
	return c.bytesSent.Load()
}

// GetBytesReceived returns the total bytes received
func (c *Connection) GetBytesReceived() uint64 {
	return c.bytesReceived.Load()
}

// readLoop classifies inbound frames: heartbeat acks, JSON envelopes, and
// binary image frames. Anything else is dropped.
func (c *Connection) readLoop(t Transport, gen uint64) {
	defer c.wg.Done()

	for {
		msgType, data, err := t.ReadMessage()
		if err != nil {
			c.handleDisconnect(gen, err)
			return
		}
		c.bytesReceived.Add(uint64(len(data)))

		switch msgType {
		case websocket.TextMessage:
			if string(data) == heartbeatPong {
				c.logf("← PONG")
				c.ackHeartbeat()
				continue
			}
			msg, err := protocol.DecodeServerMessage(data)
			if err != nil {
				c.logf("Parse error: %v", err)
				c.metrics.RecordParseError()
				c.emit(ParseErrorEvent{Err: err})
				continue
			}
			c.logf("← RECV: %s (%d bytes)", serverMessageTag(msg), len(data))
			c.metrics.RecordMessageReceived(serverMessageTag(msg))
			c.emit(ServerEvent{Message: msg})

		case websocket.BinaryMessage:
			format, ok := protocol.SniffImage(data)
			if !ok {
				c.logf("Dropping %d-byte binary frame without image signature", len(data))
				continue
			}
			c.logf("← RECV: image/%s (%d bytes)", format, len(data))
			c.metrics.RecordImageReceived()
			c.emit(ImageEvent{Data: data, Format: format})
		}
	}
}

// writeLoop is the single writer on the transport. It also owns the
// heartbeat ticker, so pings never race application frames.
func (c *Connection) writeLoop(t Transport, gen uint64, stop chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.shutdown:
			t.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-stop:
			return

		case f := <-c.outgoing:
			if err := t.WriteMessage(f.messageType, f.data); err != nil {
				c.logf("Write error: %v", err)
				c.handleDisconnect(gen, err)
				return
			}
			c.bytesSent.Add(uint64(len(f.data)))
			c.logf("→ SEND: %s (%d bytes)", f.tag, len(f.data))
			c.metrics.RecordMessageSent(f.tag)

		case <-ticker.C:
			if err := t.WriteMessage(websocket.TextMessage, []byte(heartbeatPing)); err != nil {
				c.logf("Ping write error: %v", err)
				c.handleDisconnect(gen, err)
				return
			}
			c.logf("→ PING")
			c.armHeartbeat(gen)
		}
	}
}

// armHeartbeat starts the ack timer for an outstanding ping.
func (c *Connection) armHeartbeat(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.ackTimer != nil {
		return
	}
	c.ackTimer = time.AfterFunc(c.heartbeatAckTimeout, func() {
		c.heartbeatExpired(gen)
	})
}

// ackHeartbeat clears the outstanding ping, if any.
func (c *Connection) ackHeartbeat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopHeartbeatLocked()
}

func (c *Connection) stopHeartbeatLocked() {
	if c.ackTimer != nil {
		c.ackTimer.Stop()
		c.ackTimer = nil
	}
}

// heartbeatExpired forces the transport closed after a missed pong. The
// read loop unblocks with an error and drives the normal disconnect path.
func (c *Connection) heartbeatExpired(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.ackTimer = nil
	t := c.transport
	c.mu.Unlock()

	c.logf("Heartbeat not acknowledged within %v, forcing close", c.heartbeatAckTimeout)
	c.metrics.RecordHeartbeatTimeout()
	if t != nil {
		t.Close()
	}
}

// handleDisconnect tears down the current transport exactly once. A clean
// server close (normal close frame) does not trigger reconnection.
func (c *Connection) handleDisconnect(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.generation || c.transport == nil {
		c.mu.Unlock()
		return
	}
	c.stopHeartbeatLocked()
	close(c.stop)
	c.transport.Close()
	c.transport = nil

	select {
	case <-c.shutdown:
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		return
	default:
	}

	clean := websocket.IsCloseError(err, websocket.CloseNormalClosure)
	reconnect := c.autoReconnect && !clean
	if reconnect {
		c.setStateLocked(StateReconnecting)
	} else {
		c.setStateLocked(StateDisconnected)
	}
	c.mu.Unlock()

	if clean {
		c.logf("Connection closed by server")
	} else {
		c.logf("Disconnected: %v", err)
	}
	c.emit(DisconnectedEvent{Err: err, Clean: clean})

	if reconnect {
		c.wg.Add(1)
		go c.reconnectLoop()
	}
}

// reconnectLoop retries with exponential backoff until it succeeds, the
// attempt cap is reached, or shutdown begins.
func (c *Connection) reconnectLoop() {
	defer c.wg.Done()

	for attempt := 1; attempt <= c.maxReconnectAttempts; attempt++ {
		delay := backoffDelay(c.reconnectDelay, c.maxReconnectDelay, attempt)
		c.logf("Reconnect attempt %d to %s in %v", attempt, c.addr, delay)
		c.emit(ReconnectingEvent{Attempt: attempt, Delay: delay})

		select {
		case <-c.shutdown:
			c.logf("Reconnect loop cancelled (shutdown)")
			return
		case <-time.After(delay):
		}

		c.metrics.RecordReconnectAttempt()
		c.mu.Lock()
		c.setStateLocked(StateConnecting)
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
		t, err := c.dial(ctx)
		cancel()

		if err == nil {
			c.adopt(t)
			c.logf("Reconnected successfully after %d attempt(s)", attempt)
			c.emit(ReconnectedEvent{Attempts: attempt})
			return
		}

		c.logf("Reconnect attempt %d failed: %v", attempt, err)
		c.mu.Lock()
		c.setStateLocked(StateReconnecting)
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.setStateLocked(StateTerminated)
	c.mu.Unlock()
	c.logf("Giving up after %d reconnect attempts", c.maxReconnectAttempts)
	c.emit(TerminatedEvent{Attempts: c.maxReconnectAttempts})
}

// setStateLocked records a transition. Terminated is absorbing.
func (c *Connection) setStateLocked(s SessionState) {
	if c.state == StateTerminated || c.state == s {
		return
	}
	c.state = s
	c.metrics.RecordConnectionState(s)
}

// emit delivers an event without ever blocking a connection goroutine.
func (c *Connection) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logf("Event buffer full, dropping %T", ev)
	}
}

func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		d = max
	}
	return d
}

// BackoffDelay returns the reconnect backoff schedule for attempt n
// (1-based): 1s, 2s, 4s, 8s, 16s, capped at 30s.
func BackoffDelay(attempt int) time.Duration {
	return backoffDelay(defaultReconnectDelay, defaultMaxReconnectDelay, attempt)
}

func serverMessageTag(msg protocol.ServerMessage) string {
	switch msg.(type) {
	case *protocol.ChatMessage:
		return protocol.TypeChatMessage
	case *protocol.RoomList:
		return protocol.TypeRoomList
	case *protocol.RoomCreated:
		return protocol.TypeRoomCreated
	case *protocol.RoomDeleted:
		return protocol.TypeRoomDeleted
	case *protocol.UserCount:
		return protocol.TypeUserCount
	case *protocol.UserJoined:
		return protocol.TypeUserJoined
	case *protocol.UserLeft:
		return protocol.TypeUserLeft
	case *protocol.JoinSuccess:
		return protocol.TypeJoinSuccess
	case *protocol.JoinError:
		return protocol.TypeJoinError
	case *protocol.ServerError:
		return protocol.TypeError
	case *protocol.SystemNotice:
		return protocol.TypeSystem
	default:
		return "unknown"
	}
}
