package notify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/safar/tradein-store/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedSender struct {
	mu    sync.Mutex
	errs  []error
	calls int
	sent  []Email
}

func (s *scriptedSender) SendEmail(_ context.Context, email Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return err
		}
	}
	s.sent = append(s.sent, email)
	return nil
}

func (s *scriptedSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type memoryBackend struct {
	mu       sync.Mutex
	emails   map[int64]string
	recorded []models.Communication
}

func (b *memoryBackend) CustomerEmail(_ context.Context, id int64) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.emails[id]
	if !ok {
		return "", errors.New("customer not found")
	}
	return email, nil
}

func (b *memoryBackend) RecordCommunication(_ context.Context, c *models.Communication) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recorded = append(b.recorded, *c)
	return nil
}

func (b *memoryBackend) communications() []models.Communication {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Communication(nil), b.recorded...)
}

func startDispatcher(t *testing.T, sender EmailSender, backend Backend, opts Options) (*Dispatcher, func()) {
	t.Helper()

	d := NewDispatcher(sender, backend, opts, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, 2) }()

	return d, func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestDispatcherDelivers(t *testing.T) {
	sender := &scriptedSender{}
	backend := &memoryBackend{emails: map[int64]string{3: "dana@example.com"}}
	d, stop := startDispatcher(t, sender, backend, Options{MaxAttempts: 3, RetryInterval: time.Millisecond})
	defer stop()

	require.True(t, d.Enqueue(NewEvent(EventCreated, sampleTradeIn(), "", "")))

	require.Eventually(t, func() bool { return len(backend.communications()) == 1 }, time.Second, 5*time.Millisecond)

	comm := backend.communications()[0]
	assert.Equal(t, models.CommunicationSent, comm.Status)
	assert.Equal(t, "dana@example.com", comm.Recipient)
	assert.Equal(t, TemplateCreated, comm.Template)
	assert.Equal(t, 1, comm.Attempts)
}

func TestDispatcherRetriesTemporaryFailures(t *testing.T) {
	sender := &scriptedSender{errs: []error{
		&ProviderError{StatusCode: http.StatusServiceUnavailable},
		&ProviderError{StatusCode: http.StatusTooManyRequests},
	}}
	backend := &memoryBackend{emails: map[int64]string{3: "dana@example.com"}}
	d, stop := startDispatcher(t, sender, backend, Options{MaxAttempts: 3, RetryInterval: time.Millisecond})
	defer stop()

	d.Enqueue(NewEvent(EventStatusChanged, sampleTradeIn(), models.StatusPending, ""))

	require.Eventually(t, func() bool { return len(backend.communications()) == 1 }, 2*time.Second, 5*time.Millisecond)

	comm := backend.communications()[0]
	assert.Equal(t, models.CommunicationSent, comm.Status)
	assert.Equal(t, 3, comm.Attempts)
}

func TestDispatcherGivesUpOnPermanentFailure(t *testing.T) {
	sender := &scriptedSender{errs: []error{&ProviderError{StatusCode: http.StatusUnprocessableEntity, Body: "bad template"}}}
	backend := &memoryBackend{emails: map[int64]string{3: "dana@example.com"}}
	d, stop := startDispatcher(t, sender, backend, Options{MaxAttempts: 5, RetryInterval: time.Millisecond})
	defer stop()

	d.Enqueue(NewEvent(EventCreated, sampleTradeIn(), "", ""))

	require.Eventually(t, func() bool { return len(backend.communications()) == 1 }, time.Second, 5*time.Millisecond)

	comm := backend.communications()[0]
	assert.Equal(t, models.CommunicationFailed, comm.Status)
	assert.Equal(t, 1, comm.Attempts)
	assert.Contains(t, comm.Error, "bad template")
}

func TestDispatcherRecordsUnknownRecipient(t *testing.T) {
	sender := &scriptedSender{}
	backend := &memoryBackend{emails: map[int64]string{}}
	d, stop := startDispatcher(t, sender, backend, Options{})
	defer stop()

	d.Enqueue(NewEvent(EventCreated, sampleTradeIn(), "", ""))

	require.Eventually(t, func() bool { return len(backend.communications()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.CommunicationFailed, backend.communications()[0].Status)
	assert.Zero(t, sender.callCount())
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(&scriptedSender{}, &memoryBackend{}, Options{QueueSize: 1}, zap.NewNop())

	assert.True(t, d.Enqueue(NewEvent(EventCreated, sampleTradeIn(), "", "")))
	assert.False(t, d.Enqueue(NewEvent(EventCreated, sampleTradeIn(), "", "")))
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	sender := &scriptedSender{}
	backend := &memoryBackend{emails: map[int64]string{3: "dana@example.com"}}
	d := NewDispatcher(sender, backend, Options{QueueSize: 4}, zap.NewNop())

	for i := 0; i < 3; i++ {
		require.True(t, d.Enqueue(NewEvent(EventCreated, sampleTradeIn(), "", "")))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx, 1))

	assert.Len(t, backend.communications(), 3)
	assert.False(t, d.Enqueue(NewEvent(EventCreated, sampleTradeIn(), "", "")))
}

func TestDispatcherDeliversEveryAcceptedEventAcrossShutdown(t *testing.T) {
	sender := &scriptedSender{}
	backend := &memoryBackend{emails: map[int64]string{3: "dana@example.com"}}
	d := NewDispatcher(sender, backend, Options{QueueSize: 1024}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, 2) }()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if d.Enqueue(NewEvent(EventCreated, sampleTradeIn(), "", "")) {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}
		}()
	}

	cancel()
	wg.Wait()
	require.NoError(t, <-done)

	assert.Len(t, backend.communications(), accepted)
}
