package netmsg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

// Broadcaster is an ownship.Listener that sends every snapshot, at most once
// per rate of simulated time, to a UDP address.
type Broadcaster struct {
	conn    *net.UDPConn
	dst     *net.UDPAddr
	session string
	rate    time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	seq     uint64
	last    time.Time
	failing bool
	sent    atomic.Uint64
}

// NewBroadcaster opens an unbound UDP socket sending to addr, which may be a
// broadcast address.
func NewBroadcaster(addr string, rate time.Duration, logger *slog.Logger) (*Broadcaster, error) {
	dst, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		conn:    conn,
		dst:     dst,
		session: uuid.NewString(),
		rate:    rate,
		logger:  logger,
	}, nil
}

// Session identifies this process in every envelope it sends.
func (b *Broadcaster) Session() string { return b.session }

// Sent returns the number of datagrams sent.
func (b *Broadcaster) Sent() uint64 { return b.sent.Load() }

func (b *Broadcaster) OnOwnshipUpdate(u ownship.OwnshipUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rate > 0 && !b.last.IsZero() {
		if d := u.Time.Sub(b.last); d >= 0 && d < b.rate {
			return
		}
	}
	b.last = u.Time
	b.seq++

	msg, err := Marshal(Envelope{
		Kind:    KindOwnship,
		Session: b.session,
		Seq:     b.seq,
		Sent:    time.Now().UTC(),
		Update:  &u,
	})
	if err != nil {
		b.logger.Error("failed to encode ownship update", slog.Any("error", err))
		return
	}

	if _, err := b.conn.WriteToUDP(msg, b.dst); err != nil {
		if !b.failing {
			b.logger.Warn("failed to send ownship update", slog.String("dst", b.dst.String()), slog.Any("error", err))
		}
		b.failing = true
		return
	}
	b.failing = false
	b.sent.Add(1)
}

// Close closes the socket.
func (b *Broadcaster) Close() error {
	return b.conn.Close()
}

// ReceiverStats counts inbound datagrams.
type ReceiverStats struct {
	Received uint64 `json:"received"`
	Applied  uint64 `json:"applied"`
	Dropped  uint64 `json:"dropped"`
}

// Receiver listens for command envelopes and applies them to a Controller.
type Receiver struct {
	conn   *net.UDPConn
	ctrl   Controller
	ignore string // session whose messages are our own echoes
	logger *slog.Logger
	seq    map[string]uint64

	received atomic.Uint64
	applied  atomic.Uint64
	dropped  atomic.Uint64
}

// NewReceiver binds addr. Messages from session ignore are dropped silently,
// which filters out a local Broadcaster's own datagrams.
func NewReceiver(addr string, ctrl Controller, ignore string, logger *slog.Logger) (*Receiver, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{
		conn:   conn,
		ctrl:   ctrl,
		ignore: ignore,
		logger: logger,
		seq:    map[string]uint64{},
	}, nil
}

// Addr returns the bound local address.
func (r *Receiver) Addr() net.Addr { return r.conn.LocalAddr() }

// Stats returns the datagram counters.
func (r *Receiver) Stats() ReceiverStats {
	return ReceiverStats{
		Received: r.received.Load(),
		Applied:  r.applied.Load(),
		Dropped:  r.dropped.Load(),
	}
}

// Close closes the socket; a running Run returns nil.
func (r *Receiver) Close() error {
	return r.conn.Close()
}

// Run reads datagrams until ctx is cancelled or the receiver is closed.
// Malformed or stale messages are counted and dropped.
func (r *Receiver) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		r.conn.Close()
	}()

	buf := make([]byte, 64*1024)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to read UDP: %w", err)
		}
		r.received.Add(1)
		r.handle(buf[:n], from)
	}
}

func (r *Receiver) handle(b []byte, from *net.UDPAddr) {
	e, err := Unmarshal(b)
	if err != nil {
		r.drop(from, err)
		return
	}
	if e.Session == r.ignore && r.ignore != "" {
		return
	}
	if e.Kind != KindCommand {
		return
	}

	// out-of-order datagrams from the same sender are stale
	if last, ok := r.seq[e.Session]; ok && e.Seq <= last {
		r.drop(from, fmt.Errorf("stale sequence %d after %d", e.Seq, last))
		return
	}
	r.seq[e.Session] = e.Seq

	if err := Apply(r.ctrl, *e.Command); err != nil {
		r.drop(from, err)
		return
	}
	r.applied.Add(1)
	r.logger.Debug("applied network command",
		slog.String("from", from.String()),
		slog.String("command", string(e.Command.Type)))
}

func (r *Receiver) drop(from *net.UDPAddr, err error) {
	r.dropped.Add(1)
	r.logger.Debug("dropped datagram", slog.String("from", from.String()), slog.Any("error", err))
}

// SendCommand sends a single command envelope to addr.
func SendCommand(ctx context.Context, addr, session string, seq uint64, cmd Command) error {
	msg, err := Marshal(Envelope{
		Kind:    KindCommand,
		Session: session,
		Seq:     seq,
		Sent:    time.Now().UTC(),
		Command: &cmd,
	})
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(msg); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}
