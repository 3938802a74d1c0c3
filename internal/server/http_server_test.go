package server_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/device-locator/internal/server"
)

func TestHTTPServer_StartStop(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	s := server.NewHTTPServer("127.0.0.1:0", time.Second, time.Second, handler, zerolog.Nop())

	require.NoError(t, s.Start())
	assert.EqualError(t, s.Start(), "http server is already running")

	addr := s.Addr()
	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	require.NoError(t, s.Stop())
	assert.EqualError(t, s.Stop(), "http server is not running")

	_, err = http.Get("http://" + addr + "/")
	assert.Error(t, err)
}

func TestHTTPServer_StartFailsOnBoundPort(t *testing.T) {
	handler := http.NotFoundHandler()
	first := server.NewHTTPServer("127.0.0.1:0", time.Second, time.Second, handler, zerolog.Nop())
	require.NoError(t, first.Start())
	defer first.Stop()

	second := server.NewHTTPServer(first.Addr(), time.Second, time.Second, handler, zerolog.Nop())
	assert.Error(t, second.Start())
}
