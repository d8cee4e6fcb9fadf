package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/creator-surge/backend/internal/config"
	"github.com/zhouzirui/creator-surge/backend/internal/events"
	"github.com/zhouzirui/creator-surge/backend/internal/store"
)

func TestRunServerStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestOpenStoreDefaultsToMemory(t *testing.T) {
	st, err := openStore(context.Background(), config.StoreConfig{Driver: config.DriverMemory}, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &store.MemoryStore{}, st)
}

func TestOpenPublisherDisabled(t *testing.T) {
	pub := openPublisher(context.Background(), config.EventsConfig{}, zap.NewNop())
	assert.Equal(t, events.Noop{}, pub)
}

func TestNewCompleterWithoutCredentials(t *testing.T) {
	c := newCompleter(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI}, "gpt-4o-mini", zap.NewNop())
	assert.Nil(t, c)
}
