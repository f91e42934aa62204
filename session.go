package deepgram

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// DefaultConnectTimeout bounds the WebSocket handshake when the caller's
	// context carries no deadline.
	DefaultConnectTimeout = 5 * time.Second

	pingInterval        = 30 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Session is a WebSocket connection to the Deepgram real-time transcription
// API. A Session connects at most once; create a new one to reconnect.
type Session struct {
	url    string
	apiKey string
	logger zerolog.Logger

	mu         sync.RWMutex
	writeMu    sync.Mutex
	conn       *websocket.Conn
	connected  bool
	localClose bool
	startTime  time.Time
	done       chan struct{}
	closeOnce  sync.Once

	onOpen       func()
	onRawMessage func(string)
	onTranscript func(*TranscriptMessage)
	onError      func(*Error)
	onClose      func(code int)
}

// SessionOption customizes a Session at construction time.
type SessionOption func(*Session)

// WithSessionLogger attaches a structured logger to the session. The default
// logger discards everything.
func WithSessionLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session for the given endpoint and API key.
func NewSession(url, apiKey string, opts ...SessionOption) (*Session, error) {
	if strings.TrimSpace(url) == "" {
		return nil, NewError(ErrorStatusInvalidArgument, "url cannot be empty")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, NewError(ErrorStatusInvalidArgument, "api key cannot be empty")
	}
	s := &Session{
		url:    url,
		apiKey: apiKey,
		logger: zerolog.Nop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetOptions appends the serialized stream options to the session URL. It
// must be called before Connect.
func (s *Session) SetOptions(options *AudioStreamOptions) error {
	if options == nil {
		return NewError(ErrorStatusInvalidArgument, "options cannot be nil")
	}
	if err := options.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = options.AppendToURL(s.url)
	return nil
}

// SetOnOpen sets the handler fired once the connection is established.
func (s *Session) SetOnOpen(fn func()) {
	s.mu.Lock()
	s.onOpen = fn
	s.mu.Unlock()
}

// SetOnRawMessage sets the handler that receives every inbound text frame
// verbatim, before any decoding.
func (s *Session) SetOnRawMessage(fn func(string)) {
	s.mu.Lock()
	s.onRawMessage = fn
	s.mu.Unlock()
}

// SetOnTranscript sets the handler for decoded transcript messages.
func (s *Session) SetOnTranscript(fn func(*TranscriptMessage)) {
	s.mu.Lock()
	s.onTranscript = fn
	s.mu.Unlock()
}

// SetOnError sets the handler for connection and decoding errors.
func (s *Session) SetOnError(fn func(*Error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// SetOnClose sets the handler fired exactly once when the connection ends,
// with the WebSocket close code.
func (s *Session) SetOnClose(fn func(code int)) {
	s.mu.Lock()
	s.onClose = fn
	s.mu.Unlock()
}

func (s *Session) getOnOpen() func() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onOpen
}

func (s *Session) getOnRawMessage() func(string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onRawMessage
}

func (s *Session) getOnTranscript() func(*TranscriptMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onTranscript
}

func (s *Session) getOnError() func(*Error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onError
}

func (s *Session) getOnClose() func(code int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onClose
}

// Connect dials the transcription endpoint. The OnOpen handler fires before
// Connect returns and before the read loop starts, so no inbound frame is
// delivered ahead of it.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return ErrSessionAlreadyConnected
	}
	url := s.url
	s.mu.Unlock()

	handshakeTimeout := DefaultConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		handshakeTimeout = time.Until(deadline)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	header := http.Header{}
	header.Set("Authorization", "Token "+s.apiKey)

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return NewErrorWithCause(ErrorStatusConnectionFailed, "failed to connect", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.startTime = time.Now()
	s.mu.Unlock()

	s.logger.Debug().Str("url", url).Msg("connected")

	if cb := s.getOnOpen(); cb != nil {
		cb()
	}

	go s.readLoop(conn)
	go s.pingLoop()

	return nil
}

// SendAudio writes a binary audio frame.
func (s *Session) SendAudio(data []byte) error {
	if !s.IsConnected() {
		return ErrSessionNotConnected
	}
	if len(data) == 0 {
		return NewError(ErrorStatusInvalidArgument, "audio data cannot be empty")
	}
	return s.writeRaw(websocket.BinaryMessage, data)
}

// SendControl writes a JSON control frame.
func (s *Session) SendControl(message *ControlMessage) error {
	if message == nil {
		return NewError(ErrorStatusInvalidArgument, "control message cannot be nil")
	}
	if err := message.Validate(); err != nil {
		return err
	}
	if !s.IsConnected() {
		return ErrSessionNotConnected
	}
	data, err := json.Marshal(message)
	if err != nil {
		return NewErrorWithCause(ErrorStatusInvalidArgument, "failed to marshal control message", err)
	}
	return s.writeRaw(websocket.TextMessage, data)
}

// Disconnect closes the connection. It is safe to call more than once; the
// OnClose handler still fires only once.
func (s *Session) Disconnect() {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return
	}
	s.localClose = true
	s.mu.Unlock()

	// Best-effort: tell the server we are going away before tearing down.
	s.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	conn.Close()
}

// IsConnected reports whether the connection is open.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// StartTime reports when Connect succeeded. Callers use it to measure the
// latency to the first transcript.
func (s *Session) StartTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startTime
}

// writeRaw writes a frame directly to the WebSocket.
func (s *Session) writeRaw(msgType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return ErrSessionNotConnected
	}

	conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	if err := conn.WriteMessage(msgType, data); err != nil {
		return NewErrorWithCause(ErrorStatusWebSocketError, "write error", err)
	}
	return nil
}

// readLoop drains inbound frames until the connection ends, then resolves
// the close code. A server close frame wins, a local close maps to 1000,
// anything else is an abnormal 1006.
func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			code := websocket.CloseAbnormalClosure
			if closeErr, ok := err.(*websocket.CloseError); ok {
				code = closeErr.Code
			} else if s.isLocalClose() {
				code = websocket.CloseNormalClosure
			} else {
				s.fireError(NewErrorWithCause(ErrorStatusWebSocketError, "websocket read failed", err))
			}
			s.finishClose(code)
			return
		}
		if msgType == websocket.TextMessage {
			s.handleTextMessage(message)
		}
	}
}

func (s *Session) handleTextMessage(message []byte) {
	if cb := s.getOnRawMessage(); cb != nil {
		cb(string(message))
	}

	var response TranscriptResponse
	if err := json.Unmarshal(message, &response); err != nil {
		s.logger.Error().Err(err).Msg("error parsing transcript response")
		s.fireError(NewErrorWithCause(ErrorStatusParseError, "error parsing transcript response", err))
		return
	}
	if err := response.Validate(); err != nil {
		s.logger.Error().Err(err).Msg("invalid transcript response")
		s.fireError(NewErrorWithCause(ErrorStatusParseError, "invalid transcript response", err))
		return
	}

	if msg := response.ToMessage(); msg != nil {
		if cb := s.getOnTranscript(); cb != nil {
			cb(msg)
		}
	}
}

// pingLoop sends protocol-level pings so intermediaries keep the TCP path
// alive. This is distinct from the application KeepAlive control frame.
func (s *Session) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.RLock()
			conn := s.conn
			connected := s.connected
			s.mu.RUnlock()
			if !connected || conn == nil {
				return
			}
			// Best-effort: a failed ping surfaces as a read error anyway.
			s.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
		}
	}
}

func (s *Session) isLocalClose() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.localClose
}

func (s *Session) fireError(err *Error) {
	if cb := s.getOnError(); cb != nil {
		cb(err)
	}
}

func (s *Session) finishClose(code int) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.connected = false
		close(s.done)
		s.mu.Unlock()

		s.logger.Debug().Int("code", code).Msg("disconnected")

		if cb := s.getOnClose(); cb != nil {
			cb(code)
		}
	})
}
