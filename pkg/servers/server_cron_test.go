package servers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	mu      sync.Mutex
	started bool
	done    context.Context
}

func newFakeScheduler(done context.Context) *fakeScheduler {
	return &fakeScheduler{done: done}
}

func (s *fakeScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started = true
}

func (s *fakeScheduler) Stop() context.Context {
	return s.done
}

func (s *fakeScheduler) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.started
}

func TestNewScheduler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		specs         []string
		expectedJobs  int
		expectedError bool
	}{
		{name: "interval", specs: []string{"@every 15m"}, expectedJobs: 1},
		{name: "cron expression", specs: []string{"*/5 * * * *"}, expectedJobs: 1},
		{name: "empty specs skipped", specs: []string{"", "@hourly", ""}, expectedJobs: 1},
		{name: "no specs", specs: nil, expectedJobs: 0},
		{name: "invalid spec", specs: []string{"every now and then"}, expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scheduler, err := NewScheduler(func() {}, tt.specs...)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid schedule")

				return
			}

			require.NoError(t, err)
			assert.Len(t, scheduler.Entries(), tt.expectedJobs)
		})
	}
}

func TestCronServer_RunUntilStop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	name, server := BuildCronServer("prune-cron", newFakeScheduler(ctx))
	assert.Equal(t, "prune-cron", name)

	done := make(chan error, 1)

	go func() {
		done <- server.Run(context.Background())
	}()

	require.NoError(t, server.Stop(context.Background()))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not return after stop")
	}
}

func TestCronServer_StopTimeout(t *testing.T) {
	t.Parallel()

	_, server := BuildCronServer("prune-cron", newFakeScheduler(context.Background()))

	go func() {
		_ = server.Run(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := server.Stop(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCronServer_RunsJob(t *testing.T) {
	t.Parallel()

	ran := make(chan struct{}, 1)

	scheduler, err := NewScheduler(func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}, "@every 1s")
	require.NoError(t, err)

	_, server := BuildCronServer("prune-cron", scheduler)

	go func() {
		_ = server.Run(context.Background())
	}()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, server.Stop(ctx))
}

func TestCronServer_StopBeforeRun(t *testing.T) {
	t.Parallel()

	done, cancel := context.WithCancel(context.Background())
	cancel()

	scheduler := newFakeScheduler(done)
	_, server := BuildCronServer("prune-cron", scheduler)

	require.NoError(t, server.Stop(context.Background()))

	finished := make(chan error, 1)

	go func() {
		finished <- server.Run(context.Background())
	}()

	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run blocked after an earlier stop")
	}

	assert.False(t, scheduler.Started())
}

func TestCronServer_RunUntilContextDone(t *testing.T) {
	t.Parallel()

	done, cancelDone := context.WithCancel(context.Background())
	cancelDone()

	scheduler := newFakeScheduler(done)
	_, server := BuildCronServer("prune-cron", scheduler)

	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan error, 1)

	go func() {
		finished <- server.Run(ctx)
	}()

	assert.Eventually(t, scheduler.Started, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not return after context cancellation")
	}
}
