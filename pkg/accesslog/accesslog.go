// Package accesslog writes one line per HTTP request in the classic
// "host - - [date] "request" status -" layout.
package accesslog

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/HMasataka/logging"
	"github.com/go-chi/chi/v5/middleware"
)

const timeLayout = "02/Jan/2006 15:04:05"

// Options configures the access log middleware
type Options struct {
	// Now returns the timestamp written for a request. nil means time.Now.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Now: time.Now,
	}
}

// Logger formats access log lines onto a single writer
type Logger struct {
	out     io.Writer
	options Options
	mu      sync.Mutex
}

func New(out io.Writer, options Options) *Logger {
	if options.Now == nil {
		options.Now = time.Now
	}

	return &Logger{
		out:     out,
		options: options,
	}
}

// Middleware wraps next and logs after it returns. It matches the signature
// expected by chi.Router.Use. The request context passed to next carries the
// remote host, method and path for slog handlers wrapped with
// logging.NewHandler.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = logging.WithValue(ctx, "remote_host", clientHost(r.RemoteAddr))
		ctx = logging.WithValue(ctx, "method", r.Method)
		ctx = logging.WithValue(ctx, "path", r.URL.Path)
		r = r.WithContext(ctx)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		l.write(r, ww.Status())
	})
}

// write はサイズ欄を常に "-" にする
func (l *Logger) write(r *http.Request, status int) {
	if status == 0 {
		status = http.StatusOK
	}

	line := fmt.Sprintf("%s - - [%s] \"%s %s %s\" %d -\n",
		clientHost(r.RemoteAddr),
		l.options.Now().Format(timeLayout),
		r.Method, r.RequestURI, r.Proto,
		status,
	)

	// 複数の接続から同時に書かれるため、一行ずつまとめて書く
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line)
}

func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
