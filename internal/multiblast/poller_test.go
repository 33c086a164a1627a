// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package multiblast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// fakeAPI replays scripted statuses and records every call. When a script
// runs out its last status repeats.
type fakeAPI struct {
	jobStatuses    []types.JobStatus
	reportStatuses []types.JobStatus
	description    string
	report         string

	calls []string
}

func (f *fakeAPI) next(script *[]types.JobStatus) Status {
	s := (*script)[0]
	if len(*script) > 1 {
		*script = (*script)[1:]
	}
	return Status{Status: s, Description: f.description}
}

func (f *fakeAPI) CreateJob(context.Context, JobRequest) (string, error) {
	f.calls = append(f.calls, "create-job")
	return "J1", nil
}

func (f *fakeAPI) JobStatus(context.Context, string) (Status, error) {
	f.calls = append(f.calls, "job-status")
	return f.next(&f.jobStatuses), nil
}

func (f *fakeAPI) RerunJob(context.Context, string) error {
	f.calls = append(f.calls, "rerun-job")
	return nil
}

func (f *fakeAPI) CreateReport(context.Context, string) (string, error) {
	f.calls = append(f.calls, "create-report")
	return "R1", nil
}

func (f *fakeAPI) ReportStatus(context.Context, string) (Status, error) {
	f.calls = append(f.calls, "report-status")
	return f.next(&f.reportStatuses), nil
}

func (f *fakeAPI) RerunReport(context.Context, string) error {
	f.calls = append(f.calls, "rerun-report")
	return nil
}

func (f *fakeAPI) ReportFile(context.Context, string, int64) ([]byte, error) {
	f.calls = append(f.calls, "report-file")
	return []byte(f.report), nil
}

func (f *fakeAPI) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

var testTimings = types.MultiBlastConfig{
	InitialWait:  2 * time.Second,
	PollInterval: 5 * time.Second,
	MaxWait:      time.Minute,
}

func newTestPoller(api API) (*Poller, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewPoller(api, clock, testTimings, nil), clock
}

func TestPoller_CompletesAfterPolling(t *testing.T) {
	api := &fakeAPI{
		jobStatuses:    []types.JobStatus{types.StatusQueued, types.StatusInProgress, types.StatusCompleted},
		reportStatuses: []types.JobStatus{types.StatusCompleted},
	}
	p, clock := newTestPoller(api)

	id, err := p.Run(context.Background(), JobRequest{Site: "PlasmoDB"})
	require.NoError(t, err)
	assert.Equal(t, "R1", id)

	assert.Equal(t, 1, api.count("create-job"))
	assert.Equal(t, 3, api.count("job-status"))
	assert.Equal(t, 1, api.count("create-report"))
	assert.Equal(t, 1, api.count("report-status"))
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second, 5 * time.Second}, clock.sleeps)
}

func TestPoller_BudgetExhausted(t *testing.T) {
	api := &fakeAPI{jobStatuses: []types.JobStatus{types.StatusInProgress}}
	p, clock := newTestPoller(api)
	start := clock.now

	_, err := p.Run(context.Background(), JobRequest{})
	require.Error(t, err)
	assert.True(t, wsf.IsDelayed(err), "err = %v", err)
	assert.False(t, wsf.IsUserError(err))

	elapsed := clock.now.Sub(start)
	assert.Greater(t, elapsed, testTimings.MaxWait)
	assert.LessOrEqual(t, elapsed, testTimings.MaxWait+testTimings.PollInterval)
	assert.Zero(t, api.count("create-report"))
}

func TestPoller_ExpiredRerunsOnce(t *testing.T) {
	api := &fakeAPI{
		jobStatuses:    []types.JobStatus{types.StatusExpired, types.StatusCompleted},
		reportStatuses: []types.JobStatus{types.StatusCompleted},
	}
	p, _ := newTestPoller(api)

	_, err := p.Run(context.Background(), JobRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"create-job", "job-status", "rerun-job", "job-status",
		"create-report", "report-status",
	}, api.calls)
}

func TestPoller_ExpiryKeepsDeadline(t *testing.T) {
	// The job expires forever; each expiry reruns but the budget is still
	// counted from submission.
	api := &fakeAPI{jobStatuses: []types.JobStatus{types.StatusExpired}}
	p, clock := newTestPoller(api)
	start := clock.now

	_, err := p.Run(context.Background(), JobRequest{})
	assert.True(t, wsf.IsDelayed(err), "err = %v", err)
	assert.LessOrEqual(t, clock.now.Sub(start), testTimings.MaxWait+testTimings.PollInterval)
	assert.Equal(t, api.count("job-status"), api.count("rerun-job"))
}

func TestPoller_ReportSharesBudget(t *testing.T) {
	// Most of the budget goes to the job; the report phase gets the rest.
	jobPolls := make([]types.JobStatus, 0, 12)
	for i := 0; i < 10; i++ {
		jobPolls = append(jobPolls, types.StatusInProgress)
	}
	jobPolls = append(jobPolls, types.StatusCompleted)
	api := &fakeAPI{
		jobStatuses:    jobPolls,
		reportStatuses: []types.JobStatus{types.StatusQueued},
	}
	p, clock := newTestPoller(api)
	start := clock.now

	_, err := p.Run(context.Background(), JobRequest{})
	assert.True(t, wsf.IsDelayed(err), "err = %v", err)
	assert.LessOrEqual(t, clock.now.Sub(start), testTimings.MaxWait+testTimings.PollInterval)
	assert.Less(t, api.count("report-status"), 4)
}

func TestPoller_Failures(t *testing.T) {
	tests := []struct {
		name    string
		job     types.JobStatus
		report  types.JobStatus
		wantMsg string
	}{
		{name: "job errored", job: types.StatusErrored, wantMsg: "Multi-blast service job failed: disk full"},
		{name: "report errored", job: types.StatusCompleted, report: types.StatusErrored, wantMsg: "Multi-blast service report failed: disk full"},
		{name: "unknown status", job: "paused", wantMsg: "unrecognized status value: paused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{
				jobStatuses:    []types.JobStatus{tt.job},
				reportStatuses: []types.JobStatus{tt.report},
				description:    "disk full",
			}
			p, _ := newTestPoller(api)

			_, err := p.Run(context.Background(), JobRequest{})
			require.Error(t, err)
			var me *wsf.ModelError
			assert.True(t, errors.As(err, &me), "err = %v", err)
			assert.False(t, wsf.IsDelayed(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestRealClock_SleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := realClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
