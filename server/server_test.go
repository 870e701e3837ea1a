package server_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/login-smoke/fixture"
	"github.com/jackc/login-smoke/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestServeAndShutdown(t *testing.T) {
	logger := zerolog.Nop()
	s, err := server.NewServer("127.0.0.1:0", fixture.FS, &logger)
	require.NoError(t, err)
	require.Nil(t, s.Addr())

	err = s.Listen()
	require.NoError(t, err)
	require.NotNil(t, s.Addr())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve()
	}()

	resp, err := http.Get(fmt.Sprintf("http://%s/fixtures/%s", s.Addr(), fixture.Demo))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "Chào mừng bạn trở lại!")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.Shutdown(ctx)
	require.NoError(t, err)

	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Serve did not return after Shutdown")
	}
}
