package media

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ncp/internal/shared"
)

const (
	propTimePos  = 1
	propDuration = 2

	commandTimeout = 5 * time.Second
	dialAttempts   = 50
	dialInterval   = 100 * time.Millisecond
)

// MPVOptions configures an [MPV] engine.
type MPVOptions struct {
	Path       string // mpv binary, defaults to "mpv"
	SocketPath string // IPC socket, defaults to a file in the temp dir
	Logger     *log.Logger
}

type ipcResponse struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
}

type ipcMessage struct {
	ipcResponse
	Event     string `json:"event"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
	EntryID   *int64 `json:"playlist_entry_id"`
}

type loadReply struct {
	EntryID *int64 `json:"playlist_entry_id"`
}

// MPV is a media engine backed by an mpv subprocess.
type MPV struct {
	opts   MPVOptions
	logger *log.Logger

	cmd  *exec.Cmd
	conn net.Conn

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu       sync.Mutex
	pending  map[int64]chan ipcResponse
	source   string           // most recently requested source
	entries  map[int64]string // mpv playlist_entry_id to source
	current  int64            // newest entry id seen
	position float64
	duration float64

	events chan Event
	done   chan struct{}
	once   sync.Once
}

// NewMPV creates an engine. Call [MPV.Start] before loading sources.
func NewMPV(opts MPVOptions) *MPV {
	if opts.Path == "" {
		opts.Path = "mpv"
	}
	if opts.SocketPath == "" {
		opts.SocketPath = filepath.Join(os.TempDir(), fmt.Sprintf("ncp-mpv-%d.sock", os.Getpid()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &MPV{
		opts:     opts,
		logger:   logger.WithPrefix("mpv"),
		pending:  make(map[int64]chan ipcResponse),
		entries:  make(map[int64]string),
		duration: math.NaN(),
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
}

// Start launches mpv in idle mode and connects to its IPC socket.
func (m *MPV) Start(ctx context.Context) error {
	os.Remove(m.opts.SocketPath)

	m.cmd = exec.CommandContext(ctx, m.opts.Path,
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server="+m.opts.SocketPath,
	)
	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to start %s: %v", shared.ErrServiceUnavailable, m.opts.Path, err)
	}

	conn, err := dialSocket(ctx, m.opts.SocketPath)
	if err != nil {
		m.cmd.Process.Kill()
		m.cmd.Wait()
		return err
	}

	m.logger.Debug("connected", "socket", m.opts.SocketPath, "pid", m.cmd.Process.Pid)
	return m.attach(conn)
}

func dialSocket(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	var lastErr error
	for range dialAttempts {
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialInterval):
		}
	}
	return nil, fmt.Errorf("%w: mpv socket %s: %v", shared.ErrServiceUnavailable, path, lastErr)
}

// attach starts the reader on conn and subscribes to position updates.
func (m *MPV) attach(conn net.Conn) error {
	m.conn = conn
	go m.readLoop()

	if _, err := m.command("observe_property", propTimePos, "time-pos"); err != nil {
		return err
	}
	if _, err := m.command("observe_property", propDuration, "duration"); err != nil {
		return err
	}
	return nil
}

// Events returns the lifecycle channel. It is closed by [MPV.Close].
func (m *MPV) Events() <-chan Event {
	return m.events
}

// Load replaces the current file with source, paused.
func (m *MPV) Load(source string) error {
	m.mu.Lock()
	m.source = source
	m.position = 0
	m.duration = math.NaN()
	m.mu.Unlock()

	if _, err := m.command("set_property", "pause", true); err != nil {
		return err
	}
	data, err := m.command("loadfile", source, "replace")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMediaLoad, err)
	}

	// mpv 0.38+ replies with the new entry id; older versions learn it from start-file.
	var reply loadReply
	if len(data) > 0 && json.Unmarshal(data, &reply) == nil && reply.EntryID != nil {
		m.mu.Lock()
		m.entries[*reply.EntryID] = source
		m.advance(*reply.EntryID)
		m.mu.Unlock()
	}
	return nil
}

// Play unpauses the current file.
func (m *MPV) Play() error {
	if _, err := m.command("set_property", "pause", false); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlaybackStart, err)
	}
	return nil
}

// Pause pauses the current file.
func (m *MPV) Pause() error {
	_, err := m.command("set_property", "pause", true)
	return err
}

// Seek moves to an absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	_, err := m.command("seek", seconds, "absolute")
	return err
}

// Position returns the last reported playback position.
func (m *MPV) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Duration returns the last reported duration, NaN until known.
func (m *MPV) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

// Close asks mpv to quit and releases the socket.
func (m *MPV) Close() error {
	var err error
	m.once.Do(func() {
		close(m.done)
		if m.conn != nil {
			m.conn.SetWriteDeadline(time.Now().Add(time.Second))
			m.writeLine([]any{"quit"})
			err = m.conn.Close()
		}
		if m.cmd != nil && m.cmd.Process != nil {
			waitErr := make(chan error, 1)
			go func() { waitErr <- m.cmd.Wait() }()
			select {
			case <-waitErr:
			case <-time.After(2 * time.Second):
				m.cmd.Process.Kill()
			}
		}
		os.Remove(m.opts.SocketPath)
	})
	return err
}

func (m *MPV) command(args ...any) (json.RawMessage, error) {
	id := m.nextID.Add(1)
	reply := make(chan ipcResponse, 1)

	m.mu.Lock()
	m.pending[id] = reply
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}()

	if err := m.writeRequest(id, args); err != nil {
		return nil, err
	}

	select {
	case resp := <-reply:
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], resp.Error)
		}
		return resp.Data, nil
	case <-m.done:
		return nil, shared.ErrEngineClosed
	case <-time.After(commandTimeout):
		return nil, fmt.Errorf("mpv %v: %w", args[0], context.DeadlineExceeded)
	}
}

func (m *MPV) writeRequest(id int64, args []any) error {
	payload, err := json.Marshal(map[string]any{"command": args, "request_id": id})
	if err != nil {
		return err
	}
	return m.write(payload)
}

func (m *MPV) writeLine(args []any) error {
	payload, err := json.Marshal(map[string]any{"command": args})
	if err != nil {
		return err
	}
	return m.write(payload)
}

func (m *MPV) write(payload []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.conn == nil {
		return shared.ErrEngineClosed
	}
	if _, err := m.conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrEngineClosed, err)
	}
	return nil
}

func (m *MPV) readLoop() {
	defer close(m.events)

	scanner := bufio.NewScanner(m.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			m.logger.Warn("undecodable IPC line", "error", err)
			continue
		}

		if msg.Event == "" {
			m.mu.Lock()
			reply, ok := m.pending[msg.RequestID]
			m.mu.Unlock()
			if ok {
				reply <- msg.ipcResponse
			}
			continue
		}
		m.handleEvent(msg)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		m.logger.Error("IPC read failed", "error", err)
	}
}

// eventSource resolves the source an event belongs to. Events carrying an entry
// id older than the newest one are stale and report false.
func (m *MPV) eventSource(msg ipcMessage) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.EntryID == nil {
		if src, ok := m.entries[m.current]; ok {
			return src, true
		}
		return m.source, true
	}

	id := *msg.EntryID
	switch {
	case id < m.current:
		return "", false
	case id > m.current:
		if _, ok := m.entries[id]; !ok {
			m.entries[id] = m.source
		}
		m.advance(id)
	}
	src, ok := m.entries[id]
	if !ok {
		src = m.source
	}
	return src, true
}

// advance moves the newest entry to id and forgets older ones. Callers hold m.mu.
func (m *MPV) advance(id int64) {
	if id <= m.current {
		return
	}
	m.current = id
	for old := range m.entries {
		if old < id {
			delete(m.entries, old)
		}
	}
}

func (m *MPV) handleEvent(msg ipcMessage) {
	var source string
	switch msg.Event {
	case "start-file", "file-loaded", "end-file":
		src, ok := m.eventSource(msg)
		if !ok {
			m.logger.Debug("dropped stale event", "event", msg.Event, "entry", *msg.EntryID)
			return
		}
		source = src
	}

	switch msg.Event {
	case "start-file":
		m.logger.Debug("file started", "source", source)
	case "file-loaded":
		m.emit(Event{Kind: EventReady, Source: source, Duration: m.Duration()}, true)
	case "end-file":
		switch msg.Reason {
		case "eof":
			m.emit(Event{Kind: EventEnded, Source: source}, true)
		case "error":
			reason := msg.FileError
			if reason == "" {
				reason = "unknown error"
			}
			m.emit(Event{Kind: EventError, Source: source, Err: fmt.Errorf("%w: %s", shared.ErrMediaLoad, reason)}, true)
		}
	case "property-change":
		value := decodeFloat(msg.Data)
		m.mu.Lock()
		switch msg.ID {
		case propTimePos:
			if math.IsNaN(value) {
				value = 0
			}
			m.position = value
		case propDuration:
			m.duration = value
		}
		src, ok := m.entries[m.current]
		if !ok {
			src = m.source
		}
		ev := Event{Kind: EventTimeUpdate, Source: src, Position: m.position, Duration: m.duration}
		m.mu.Unlock()
		m.emit(ev, false)
	default:
		m.logger.Debug("ignored event", "event", msg.Event)
	}
}

// emit delivers ev. Time updates are dropped when the consumer lags; lifecycle
// events wait until the engine closes.
func (m *MPV) emit(ev Event, mustDeliver bool) {
	if !mustDeliver {
		select {
		case m.events <- ev:
		default:
		}
		return
	}
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

func decodeFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return math.NaN()
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return math.NaN()
	}
	return *v
}
