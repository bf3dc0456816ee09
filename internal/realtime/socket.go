package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	errMissingStreamURL = errors.New("realtime: stream url is required")
	errMissingBus       = errors.New("realtime: event bus is required")
)

// SocketConfig describes the dependencies for a live channel connection.
type SocketConfig struct {
	// StreamURL is the ws:// or wss:// endpoint of the backend event stream.
	StreamURL string
	// AccessToken, when set, is passed as the access_token query parameter.
	AccessToken string
	Bus         *Bus
	Logger      *zap.Logger
}

// Socket maintains one websocket connection to the backend and feeds every
// received frame onto the event bus. The read loop is the single goroutine
// publishing channel events, which serializes handler execution across all
// subscribers.
type Socket struct {
	conn   *websocket.Conn
	bus    *Bus
	logger *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// DialSocket connects to the stream endpoint and starts the read loop. The
// connection is torn down when ctx is cancelled or Close is called.
func DialSocket(ctx context.Context, cfg SocketConfig) (*Socket, error) {
	if cfg.StreamURL == "" {
		return nil, errMissingStreamURL
	}
	if cfg.Bus == nil {
		return nil, errMissingBus
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := cfg.StreamURL
	if cfg.AccessToken != "" {
		endpoint += "?access_token=" + cfg.AccessToken
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	socket := &Socket{
		conn:   conn,
		bus:    cfg.Bus,
		logger: logger,
		done:   make(chan struct{}),
	}

	go socket.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			socket.Close()
		case <-socket.done:
		}
	}()

	return socket, nil
}

// Close tears down the connection. Safe to call more than once.
func (s *Socket) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Done is closed once the connection has terminated.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

func (s *Socket) readLoop() {
	defer s.Close()
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Warn("live channel closed", zap.Error(err))
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		if frame.Event == "" {
			s.logger.Warn("dropping frame without event name")
			continue
		}
		s.bus.Publish(frame.Event, frame.Data)
	}
}
