package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	errNotListening     = errors.New("server is not listening")
	errAlreadyListening = errors.New("server is already listening")
	errStopped          = errors.New("server is stopped")
)

// State is the lifecycle of a Server: Starting -> Listening -> Stopped.
type State int32

const (
	Starting State = iota
	Listening
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Listening:
		return "listening"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options configures a Server
type Options struct {
	Host string
	// Port 0 lets the OS pick a free port.
	Port              int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultOptions binds loopback on an ephemeral port
func DefaultOptions() Options {
	return Options{
		Host:            "127.0.0.1",
		Port:            0,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server serves one handler on a single listener. Each accepted connection is
// handled on its own goroutine by net/http.
type Server struct {
	options    Options
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener
	state      atomic.Int32
	mutex      sync.Mutex
}

func New(handler http.Handler, options Options) *Server {
	if options.Host == "" {
		options.Host = DefaultOptions().Host
	}

	s := &Server{
		options: options,
		handler: handler,
	}
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: options.ReadHeaderTimeout,
	}
	s.state.Store(int32(Starting))

	return s
}

func (s *Server) State() State {
	return State(s.state.Load())
}

// Listen binds the configured address. After it returns, URL reports the
// port actually bound.
func (s *Server) Listen() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch s.State() {
	case Listening:
		return errAlreadyListening
	case Stopped:
		return errStopped
	}

	addr := net.JoinHostPort(s.options.Host, strconv.Itoa(s.options.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.listener = listener
	s.state.Store(int32(Listening))

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL is the base URL of the server, e.g. http://127.0.0.1:54321.
func (s *Server) URL() string {
	addr, ok := s.Addr().(*net.TCPAddr)
	if !ok {
		return ""
	}

	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(s.options.Host, strconv.Itoa(addr.Port)),
	}
	return u.String()
}

// EntryURL joins the entry page onto URL.
func (s *Server) EntryURL(entry string) string {
	base := s.URL()
	if base == "" {
		return ""
	}
	return base + "/" + strings.TrimPrefix(entry, "/")
}

// Serve blocks until ctx is cancelled or Shutdown is called. A clean shutdown
// returns nil.
func (s *Server) Serve(ctx context.Context) error {
	s.mutex.Lock()
	listener := s.listener
	s.mutex.Unlock()

	if listener == nil || s.State() != Listening {
		return errNotListening
	}

	done := make(chan struct{})
	defer close(done)

	shutdownErr := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
			defer cancel()
			shutdownErr <- s.Shutdown(shutdownCtx)
		case <-done:
			shutdownErr <- nil
		}
	}()

	err := s.httpServer.Serve(listener)
	if !errors.Is(err, http.ErrServerClosed) {
		s.state.Store(int32(Stopped))
		return err
	}

	// Serve は Shutdown の開始と同時に戻るので、完了を待つ
	if ctx.Err() != nil {
		return <-shutdownErr
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
// Calling it more than once is harmless.
func (s *Server) Shutdown(ctx context.Context) error {
	if State(s.state.Swap(int32(Stopped))) == Stopped {
		return nil
	}

	err := s.httpServer.Shutdown(ctx)

	// Serve を呼ぶ前に止めた場合はリスナーが http.Server に渡っていない
	s.mutex.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mutex.Unlock()

	if err != nil {
		slog.Warn("graceful shutdown failed, closing connections", slog.String("error", err.Error()))
		return s.httpServer.Close()
	}
	return nil
}
