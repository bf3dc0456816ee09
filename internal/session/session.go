// Package session supplies the signed-in identity and the live event channel
// the rest of the client consumes: it logs in, dials the stream, and hands
// out the shared bus and API client.
package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/PavanKumar06/stackoverflow-client/internal/apiclient"
	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
	"github.com/PavanKumar06/stackoverflow-client/internal/realtime"
	"go.uber.org/zap"
)

var errMissingStreamURL = errors.New("session: stream url is required")

// Config describes how to establish a session against the backend.
type Config struct {
	BaseURL    string
	StreamURL  string
	Username   forum.Username
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Session is the live context shared by every mounted component: the current
// user, the API client carrying the session token, and the single event
// channel. The channel is one shared connection; each component registers its
// own named handlers on the bus and unregisters only its own.
type Session struct {
	User   forum.Username
	API    *apiclient.Client
	Bus    *realtime.Bus
	socket *realtime.Socket
}

// Open logs in, dials the live channel, and returns the session context.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.StreamURL == "" {
		return nil, errMissingStreamURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	api, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.BaseURL,
		HTTPClient: cfg.HTTPClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	login, err := api.Login(ctx, cfg.Username)
	if err != nil {
		return nil, err
	}

	bus := realtime.NewBus()
	socket, err := realtime.DialSocket(ctx, realtime.SocketConfig{
		StreamURL:   cfg.StreamURL,
		AccessToken: login.AccessToken,
		Bus:         bus,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		User:   cfg.Username,
		API:    api,
		Bus:    bus,
		socket: socket,
	}, nil
}

// Close tears down the live channel.
func (s *Session) Close() {
	if s.socket != nil {
		s.socket.Close()
	}
}

// Done is closed once the live channel has terminated.
func (s *Session) Done() <-chan struct{} {
	return s.socket.Done()
}
