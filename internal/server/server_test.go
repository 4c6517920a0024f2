package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hello")
	})
}

func TestState(t *testing.T) {
	assert.Equal(t, "starting", Starting.String())
	assert.Equal(t, "listening", Listening.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestListen(t *testing.T) {
	t.Run("エフェメラルポートにバインドする", func(t *testing.T) {
		s := New(helloHandler(), DefaultOptions())
		assert.Equal(t, Starting, s.State())
		assert.Nil(t, s.Addr())
		assert.Empty(t, s.URL())

		require.NoError(t, s.Listen())
		t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

		assert.Equal(t, Listening, s.State())

		addr, ok := s.Addr().(*net.TCPAddr)
		require.True(t, ok)
		assert.NotZero(t, addr.Port)
		assert.Equal(t, "http://127.0.0.1:"+strconv.Itoa(addr.Port), s.URL())
		assert.Equal(t, s.URL()+"/index.html", s.EntryURL("index.html"))
		assert.Equal(t, s.URL()+"/index.html", s.EntryURL("/index.html"))
	})

	t.Run("二重のListenはエラー", func(t *testing.T) {
		s := New(helloHandler(), DefaultOptions())
		require.NoError(t, s.Listen())
		t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

		assert.ErrorIs(t, s.Listen(), errAlreadyListening)
	})

	t.Run("停止後のListenはエラー", func(t *testing.T) {
		s := New(helloHandler(), DefaultOptions())
		require.NoError(t, s.Shutdown(context.Background()))

		assert.ErrorIs(t, s.Listen(), errStopped)
	})

	t.Run("同時に起動すると別のポートになる", func(t *testing.T) {
		a := New(helloHandler(), DefaultOptions())
		b := New(helloHandler(), DefaultOptions())
		require.NoError(t, a.Listen())
		require.NoError(t, b.Listen())
		t.Cleanup(func() {
			_ = a.Shutdown(context.Background())
			_ = b.Shutdown(context.Background())
		})

		assert.NotEqual(t, a.URL(), b.URL())
	})

	t.Run("ホスト未指定はループバック", func(t *testing.T) {
		s := New(helloHandler(), Options{})
		require.NoError(t, s.Listen())
		t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

		assert.True(t, strings.HasPrefix(s.URL(), "http://127.0.0.1:"))
	})
}

func TestServe(t *testing.T) {
	t.Run("Listen前のServeはエラー", func(t *testing.T) {
		s := New(helloHandler(), DefaultOptions())
		assert.ErrorIs(t, s.Serve(context.Background()), errNotListening)
	})

	t.Run("コンテキストのキャンセルで停止する", func(t *testing.T) {
		s := New(helloHandler(), DefaultOptions())
		require.NoError(t, s.Listen())

		ctx, cancel := context.WithCancel(context.Background())
		serveErr := make(chan error, 1)
		go func() { serveErr <- s.Serve(ctx) }()

		resp, err := http.Get(s.URL() + "/")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, resp.Body.Close())
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body))

		cancel()

		select {
		case err := <-serveErr:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Serve did not return after cancel")
		}
		assert.Equal(t, Stopped, s.State())

		_, err = http.Get(s.URL() + "/")
		assert.Error(t, err)
	})

	t.Run("Shutdownで停止する", func(t *testing.T) {
		s := New(helloHandler(), DefaultOptions())
		require.NoError(t, s.Listen())

		serveErr := make(chan error, 1)
		go func() { serveErr <- s.Serve(context.Background()) }()

		require.Eventually(t, func() bool {
			resp, err := http.Get(s.URL())
			if err != nil {
				return false
			}
			_ = resp.Body.Close()
			return resp.StatusCode == http.StatusOK
		}, 5*time.Second, 10*time.Millisecond)

		require.NoError(t, s.Shutdown(context.Background()))
		require.NoError(t, s.Shutdown(context.Background()))

		select {
		case err := <-serveErr:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Serve did not return after Shutdown")
		}
	})

	t.Run("Serve前のShutdownでポートを解放する", func(t *testing.T) {
		s := New(helloHandler(), DefaultOptions())
		require.NoError(t, s.Listen())
		addr := s.Addr().String()

		require.NoError(t, s.Shutdown(context.Background()))

		l, err := net.Listen("tcp", addr)
		require.NoError(t, err)
		_ = l.Close()
	})
}

func TestOpenEntry(t *testing.T) {
	t.Run("URLを渡す", func(t *testing.T) {
		var opened []string
		OpenEntry(OpenerFunc(func(url string) error {
			opened = append(opened, url)
			return nil
		}), "http://127.0.0.1:1234/index.html")

		assert.Equal(t, []string{"http://127.0.0.1:1234/index.html"}, opened)
	})

	t.Run("失敗しても落ちない", func(t *testing.T) {
		assert.NotPanics(t, func() {
			OpenEntry(OpenerFunc(func(string) error { return errors.New("no browser") }), "http://127.0.0.1:1/")
		})
	})

	t.Run("nilや空URLは何もしない", func(t *testing.T) {
		called := false
		OpenEntry(nil, "http://127.0.0.1:1/")
		OpenEntry(OpenerFunc(func(string) error {
			called = true
			return nil
		}), "")

		assert.False(t, called)
	})
}
