package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs int32
	err  error
}

func (j *countingJob) Run() error {
	atomic.AddInt32(&j.runs, 1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "hourly"}

	require.NoError(t, s.AddJob("@hourly", job))
	assert.Equal(t, 1, s.Entries())

	got, ok := s.Job("hourly")
	require.True(t, ok)
	assert.Same(t, job, got)

	_, ok = s.Job("missing")
	assert.False(t, ok)
}

func TestScheduler_AddJobInvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("not a schedule", &countingJob{name: "bad"})
	assert.Error(t, err)
	assert.Equal(t, 0, s.Entries())
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	failing := &countingJob{name: "failing", err: errors.New("boom")}

	assert.EqualError(t, s.RunNow(failing), "boom")
	assert.Equal(t, int32(1), atomic.LoadInt32(&failing.runs))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "idle"}))

	assert.NotPanics(t, func() {
		s.Start()
		s.Stop()
	})
}

func TestScheduler_RunJobSwallowsErrors(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "failing", err: errors.New("boom")}

	assert.NotPanics(t, func() { s.runJob(job) })
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.runs))
}
