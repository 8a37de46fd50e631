package session

import (
	"crypto/cipher"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/buffer"
	"github.com/parallelstone/mcserver-core/internal/netcore"
	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/protoerr"
	"github.com/parallelstone/mcserver-core/internal/wire"
)

// Options configures the limits a Session enforces (spec.md §6).
type Options struct {
	MaxPacketSize    int32
	MaxQueuedPackets int
	// IdleTimeout is not checked by the Session itself; idle sessions are
	// disconnected by the Session Manager's sweep (manager.Limits).
	IdleTimeout   time.Duration
	ReadChunkSize int
}

// DefaultOptions mirrors spec.md §6's configuration table.
func DefaultOptions() Options {
	return Options{
		MaxPacketSize:    2097151,
		MaxQueuedPackets: 256,
		IdleTimeout:      30 * time.Second,
		ReadChunkSize:    4096,
	}
}

// Counters are the per-session traffic counters named in spec.md §3.
type Counters struct {
	BytesIn  uint64
	BytesOut uint64
	PktsIn   uint64
	PktsOut  uint64
}

// Session owns one TCP connection: it drives the receive->parse->dispatch
// loop, the outgoing queue, and disconnect semantics (spec.md §4.7, C7).
type Session struct {
	ID              string
	conn            netcore.Conn
	peerAddr        string
	protocolVersion int32
	dispatcher      Dispatcher
	log             *zap.Logger
	opts            Options

	recv *buffer.Buffer

	outCh  chan []byte
	stopCh chan struct{}

	stateMu sync.Mutex
	state   State

	playerName string
	playerUUID wire.UUID
	identityMu sync.RWMutex

	compressionThreshold int32 // -1 disables compression
	cryptMu              sync.RWMutex
	encryptStream        cipher.Stream
	decryptStream        cipher.Stream

	connectTime      time.Time
	lastActivityNano int64

	bytesIn  uint64
	bytesOut uint64
	pktsIn   uint64
	pktsOut  uint64

	disconnectOnce sync.Once
	reason         DisconnectReason
	done           chan struct{}
	onDisconnect   func(*Session, DisconnectReason)
}

// New constructs a Session in StateConnecting. Run must be called to drive it.
func New(id string, conn netcore.Conn, dispatcher Dispatcher, log *zap.Logger, opts Options, onDisconnect func(*Session, DisconnectReason)) *Session {
	now := time.Now()
	s := &Session{
		ID:                   id,
		conn:                 conn,
		peerAddr:             conn.RemoteAddr().String(),
		dispatcher:           dispatcher,
		log:                  log,
		opts:                 opts,
		recv:                 buffer.New(opts.ReadChunkSize),
		outCh:                make(chan []byte, opts.MaxQueuedPackets),
		stopCh:               make(chan struct{}),
		state:                StateConnecting,
		compressionThreshold: -1,
		connectTime:          now,
		done:                 make(chan struct{}),
		onDisconnect:         onDisconnect,
	}
	atomic.StoreInt64(&s.lastActivityNano, now.UnixNano())
	return s
}

func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) PeerAddr() string { return s.peerAddr }

func (s *Session) PlayerName() string {
	s.identityMu.RLock()
	defer s.identityMu.RUnlock()
	return s.playerName
}

func (s *Session) PlayerUUID() wire.UUID {
	s.identityMu.RLock()
	defer s.identityMu.RUnlock()
	return s.playerUUID
}

// SetIdentity records the player's name and UUID after Login Start.
func (s *Session) SetIdentity(name string, uuid wire.UUID) {
	s.identityMu.Lock()
	defer s.identityMu.Unlock()
	s.playerName = name
	s.playerUUID = uuid
}

func (s *Session) SetProtocolVersion(v int32) { atomic.StoreInt32(&s.protocolVersion, v) }
func (s *Session) ProtocolVersion() int32      { return atomic.LoadInt32(&s.protocolVersion) }

// EnableCompression switches on the compression filter (spec.md §4.3) for
// every subsequent outbound and inbound packet.
func (s *Session) EnableCompression(threshold int32) {
	atomic.StoreInt32(&s.compressionThreshold, threshold)
}

func (s *Session) compressionEnabled() (int32, bool) {
	t := atomic.LoadInt32(&s.compressionThreshold)
	return t, t >= 0
}

// EnableEncryption switches on AES-128/CFB8 for every byte from this point
// onward in both directions (spec.md §4.3, online mode only).
func (s *Session) EnableEncryption(encrypt, decrypt cipher.Stream) {
	s.cryptMu.Lock()
	defer s.cryptMu.Unlock()
	s.encryptStream = encrypt
	s.decryptStream = decrypt
}

func (s *Session) Counters() Counters {
	return Counters{
		BytesIn:  atomic.LoadUint64(&s.bytesIn),
		BytesOut: atomic.LoadUint64(&s.bytesOut),
		PktsIn:   atomic.LoadUint64(&s.pktsIn),
		PktsOut:  atomic.LoadUint64(&s.pktsOut),
	}
}

func (s *Session) touchActivity() {
	atomic.StoreInt64(&s.lastActivityNano, time.Now().UnixNano())
}

// IdleFor reports how long it has been since the last inbound activity.
func (s *Session) IdleFor() time.Duration {
	last := atomic.LoadInt64(&s.lastActivityNano)
	return time.Since(time.Unix(0, last))
}

// Done is closed once disconnect processing has fully completed.
func (s *Session) Done() <-chan struct{} { return s.done }

// transition applies next if legal, after a handler's Outcome has been
// inspected — never from inside a buffer read (spec.md §4.4).
func (s *Session) transition(next State) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if !CanTransition(s.state, next) {
		return protoerr.Internal("illegal transition %s -> %s", s.state, next)
	}
	s.state = next
	return nil
}

// Send frames body under packetID (applying compression if enabled) and
// enqueues it for the egress loop. If the queue is at MAX_QUEUED_PACKETS,
// the new buffer is dropped silently (spec.md §4.7's back-pressure policy).
func (s *Session) Send(packetID int32, body []byte) {
	var frame []byte
	if threshold, enabled := s.compressionEnabled(); enabled {
		f, err := wire.FrameCompressed(packetID, body, int(threshold))
		if err != nil {
			s.log.Warn("failed to compress outbound packet", zap.Error(err), zap.String("session", s.ID))
			return
		}
		frame = f
	} else {
		frame = wire.FrameRaw(packetID, body)
	}

	select {
	case s.outCh <- frame:
	default:
		s.log.Warn("outgoing queue full, dropping packet", zap.String("session", s.ID), zap.Int32("packet_id", packetID))
	}
}

// Run drives ingress and egress until the session disconnects, then blocks
// until both loops have exited. It is intended to be called from the
// worker goroutine the Server Core spawns per accepted connection.
func (s *Session) Run() {
	if err := s.transition(StateHandshaking); err != nil {
		s.disconnect(InternalError(err.Error()))
		close(s.done)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.runEgress()
	}()
	go func() {
		defer wg.Done()
		s.runIngress()
	}()
	wg.Wait()
	close(s.done)
}

func (s *Session) runEgress() {
	for {
		var frame []byte
		select {
		case <-s.stopCh:
			return
		case frame = <-s.outCh:
		}
		if err := s.writeFrame(frame); err != nil {
			s.disconnect(NetworkError(err))
			return
		}
	}
}

func (s *Session) writeFrame(frame []byte) error {
	out := frame
	s.cryptMu.RLock()
	enc := s.encryptStream
	s.cryptMu.RUnlock()
	if enc != nil {
		ciphertext := make([]byte, len(frame))
		enc.XORKeyStream(ciphertext, frame)
		out = ciphertext
	}
	if _, err := s.conn.Write(out); err != nil {
		return err
	}
	atomic.AddUint64(&s.bytesOut, uint64(len(out)))
	atomic.AddUint64(&s.pktsOut, 1)
	return nil
}

// flushOutgoing drains any frames already queued for egress before the
// socket closes, so a handler's final reply (e.g. Pong Response before a
// Status disconnect) is not silently lost to a race with teardown.
func (s *Session) flushOutgoing() {
	for {
		select {
		case frame := <-s.outCh:
			_ = s.writeFrame(frame)
		default:
			return
		}
	}
}

func (s *Session) runIngress() {
	for {
		if s.State() == StateDisconnected || s.State() == StateDisconnecting {
			return
		}

		if s.recv.WritableBytes() == 0 {
			s.recv.Compact()
			if s.recv.WritableBytes() == 0 {
				s.recv.Grow(s.opts.ReadChunkSize)
			}
		}

		n, err := s.conn.Read(s.recv.WritableRegion())
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.disconnect(ClientClose())
			} else {
				s.disconnect(NetworkError(err))
			}
			return
		}
		if n == 0 {
			s.disconnect(ClientClose())
			return
		}

		region := s.recv.WritableRegion()[:n]
		s.cryptMu.RLock()
		dec := s.decryptStream
		s.cryptMu.RUnlock()
		if dec != nil {
			dec.XORKeyStream(region, region)
		}
		s.recv.AdvanceWritePosition(n)
		atomic.AddUint64(&s.bytesIn, uint64(n))

		if s.maybeHandleLegacyPing() {
			return
		}

		for s.recv.HasCompletePacket() {
			if s.State() == StateDisconnecting || s.State() == StateDisconnected {
				return
			}
			if done := s.dispatchOnePacket(); done {
				return
			}
		}

		// A length prefix still unreadable with MaxVarIntBytes bytes present
		// is malformed, not incomplete.
		if _, ok := s.recv.PeekPacketLength(); !ok && s.recv.ReadableBytes() >= wire.MaxVarIntBytes {
			s.disconnect(ProtocolError("malformed packet length varint"))
			return
		}
	}
}

// maybeHandleLegacyPing detects the pre-Netty single-byte 0xFE ping (no
// VarInt framing) that spec.md §4.6 requires accepting in Handshaking
// before any real packet has been read. It replies with a legacy kick
// packet and disconnects, never reaching the normal dispatch path.
func (s *Session) maybeHandleLegacyPing() bool {
	if s.State() != StateHandshaking || s.recv.ReadPos() != 0 {
		return false
	}
	b, ok := s.recv.PeekByte()
	if !ok || b != 0xFE {
		return false
	}
	_ = s.recv.AdvanceReadPosition(1)
	reply := wire.EncodeLegacyKick("§1\x00127\x000\x0020\x00A Minecraft Server")
	if _, err := s.conn.Write(reply); err != nil {
		s.disconnect(NetworkError(err))
		return true
	}
	s.disconnect(ClientClose())
	return true
}

// dispatchOnePacket implements the Packet Dispatcher's per-packet
// algorithm (spec.md §4.5). It returns true once the session has begun
// disconnecting, telling the ingress loop to stop.
func (s *Session) dispatchOnePacket() bool {
	length, ok := s.recv.PeekPacketLength()
	if !ok {
		return false
	}
	if length <= 0 || length > s.opts.MaxPacketSize {
		s.disconnect(ProtocolError("packet length out of range"))
		return true
	}

	if err := s.recv.SkipPacketLength(); err != nil {
		s.disconnect(InternalError(err.Error()))
		return true
	}

	raw, err := s.recv.CurrentReadSlice(int(length))
	if err != nil {
		s.disconnect(InternalError(err.Error()))
		return true
	}

	payload := raw
	if threshold, enabled := s.compressionEnabled(); enabled {
		_ = threshold
		decompressed, _, derr := wire.DecompressFrame(raw)
		if derr != nil {
			s.disconnect(ProtocolError(derr.Error()))
			_ = s.recv.AdvanceReadPosition(int(length))
			return true
		}
		payload = decompressed
	}

	view := packetview.New(payload)
	packetID, err := view.ReadVarInt()
	if err != nil {
		s.disconnect(ProtocolError("missing packet id: " + err.Error()))
		_ = s.recv.AdvanceReadPosition(int(length))
		return true
	}

	outcome, dispatchErr := s.dispatcher.Dispatch(s, packetID, view)

	// Regardless of handler success, advance read_pos by the declared
	// length to consume the packet (spec.md §4.5 step 7).
	if aerr := s.recv.AdvanceReadPosition(int(length)); aerr != nil {
		s.disconnect(InternalError(aerr.Error()))
		return true
	}

	atomic.AddUint64(&s.pktsIn, 1)
	s.touchActivity()

	if dispatchErr != nil {
		s.disconnect(ProtocolError(dispatchErr.Error()))
		return true
	}

	if outcome.disconnect {
		s.disconnect(outcome.reason)
		return true
	}
	if outcome.hasNext {
		if terr := s.transition(outcome.next); terr != nil {
			s.disconnect(InternalError(terr.Error()))
			return true
		}
	}
	return false
}

// Disconnect requests an orderly shutdown from outside the ingress loop
// (e.g. the Session Manager's idle-timeout sweep). It is idempotent and
// safe to call from any goroutine.
func (s *Session) Disconnect(reason DisconnectReason) {
	s.disconnect(reason)
}

// disconnect is idempotent: calling it twice results in exactly one
// on_disconnect callback (spec.md §8, Testable Property 10).
func (s *Session) disconnect(reason DisconnectReason) {
	s.disconnectOnce.Do(func() {
		s.reason = reason
		s.stateMu.Lock()
		if s.state != StateDisconnected {
			if CanTransition(s.state, StateDisconnecting) {
				s.state = StateDisconnecting
			}
			s.state = StateDisconnected
		}
		s.stateMu.Unlock()

		s.flushOutgoing()
		_ = s.conn.Close()
		close(s.stopCh)

		if s.onDisconnect != nil {
			s.onDisconnect(s, reason)
		}
	})
}

// Reason returns the recorded disconnect reason (zero value if still connected).
func (s *Session) Reason() DisconnectReason { return s.reason }

func (s *Session) ConnectTime() time.Time { return s.connectTime }
