package mq

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedBuffer: буфер логов для нескольких горутин.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// setupAttempts считает неудачные попытки начать потребление очереди.
func (b *lockedBuffer) setupAttempts(queue Queue) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, line := range strings.Split(b.buf.String(), "\n") {
		if strings.Contains(line, `"msg":"failed to setup consume"`) && strings.Contains(line, `"queue":"`+string(queue)+`"`) {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// newDisconnectedConnection: соединение без открытого канала.
func newDisconnectedConnection(logger *slog.Logger) *Connection {
	return &Connection{
		logger:      logger,
		closedCh:    make(chan struct{}),
		reconnectCh: make(chan struct{}),
	}
}

func TestConnection_ReconnectNotifyBroadcast(t *testing.T) {
	conn := newDisconnectedConnection(discardLogger())

	first := conn.ReconnectNotify()
	second := conn.ReconnectNotify()
	conn.notifyReconnected()

	for i, ch := range []<-chan struct{}{first, second} {
		select {
		case <-ch:
		default:
			t.Errorf("subscriber %d was not notified", i)
		}
	}

	select {
	case <-conn.ReconnectNotify():
		t.Error("a new subscription must wait for the next reconnect")
	default:
	}
}

func TestConsumer_AllResumeAfterReconnect(t *testing.T) {
	logs := &lockedBuffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	conn := newDisconnectedConnection(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queues := []Queue{QueueJobOutputs, QueueRunTransitions}
	done := make(chan error, len(queues))
	for _, q := range queues {
		c := NewConsumer(conn, logger, ConsumerConfig{
			Queue:   q,
			Handler: func(context.Context, *Message) error { return nil },
		})
		go func() { done <- c.Run(ctx) }()
	}

	for _, q := range queues {
		waitFor(t, "first setup of "+string(q), func() bool { return logs.setupAttempts(q) == 1 })
	}

	conn.notifyReconnected()

	for _, q := range queues {
		waitFor(t, "setup after reconnect of "+string(q), func() bool { return logs.setupAttempts(q) == 2 })
	}

	cancel()
	for range queues {
		if err := <-done; err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	}
}

func TestConsumer_LogsQueueOnce(t *testing.T) {
	logs := &lockedBuffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	c := NewConsumer(nil, logger, ConsumerConfig{Queue: QueueJobOutputs})
	c.logger.Info("x")

	if n := strings.Count(logs.buf.String(), `"queue"`); n != 1 {
		t.Errorf("expected queue attribute once, got %d in %s", n, logs.buf.String())
	}
}
