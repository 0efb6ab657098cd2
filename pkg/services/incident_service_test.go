package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/timeplus-io/soc-dashboard/pkg/config"
	"github.com/timeplus-io/soc-dashboard/pkg/models"
	"github.com/timeplus-io/soc-dashboard/pkg/simulator"
)

// MockSink is a mock implementation of the TelemetrySink interface
type MockSink struct {
	mock.Mock
}

var _ TelemetrySink = (*MockSink)(nil)

func (m *MockSink) PublishIncident(ctx context.Context, incident models.Incident) error {
	args := m.Called(ctx, incident)
	return args.Error(0)
}

func (m *MockSink) PublishAlert(ctx context.Context, alert models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockSink) PublishTraffic(ctx context.Context, traffic models.NetworkTraffic) error {
	args := m.Called(ctx, traffic)
	return args.Error(0)
}

func (m *MockSink) PublishThreat(ctx context.Context, threat models.ThreatDetection) error {
	args := m.Called(ctx, threat)
	return args.Error(0)
}

func (m *MockSink) PublishAnomaly(ctx context.Context, anomaly models.AnomalyDetection) error {
	args := m.Called(ctx, anomaly)
	return args.Error(0)
}

func (m *MockSink) PublishSystemStatus(ctx context.Context, statuses []models.SystemStatus) error {
	args := m.Called(ctx, statuses)
	return args.Error(0)
}

// defaultSimulation mirrors the production defaults
func defaultSimulation() config.SimulationConfig {
	return config.SimulationConfig{
		CorrelationWindowSeconds: 300,
		Initial:                  config.InitialCounts{Incidents: 10, Alerts: 15, Threats: 8, Anomalies: 6},
		Feeds: config.FeedsConfig{
			Incidents:    config.FeedConfig{IntervalMs: 5000, Probability: 0.3, Limit: 50},
			Traffic:      config.FeedConfig{IntervalMs: 1000, Probability: 1, Limit: 100},
			Alerts:       config.FeedConfig{IntervalMs: 3000, Probability: 0.4, Limit: 100},
			Threats:      config.FeedConfig{IntervalMs: 8000, Probability: 0.2, Limit: 50},
			Anomalies:    config.FeedConfig{IntervalMs: 10000, Probability: 0.15, Limit: 50},
			SystemStatus: config.FeedConfig{IntervalMs: 15000, Probability: 1},
		},
	}
}

// fastSimulation fires every feed every few milliseconds
func fastSimulation(probability float64, limit int) config.SimulationConfig {
	feed := config.FeedConfig{IntervalMs: 2, Probability: probability, Limit: limit}
	cfg := defaultSimulation()
	cfg.Feeds = config.FeedsConfig{
		Incidents:    feed,
		Traffic:      feed,
		Alerts:       feed,
		Threats:      feed,
		Anomalies:    feed,
		SystemStatus: feed,
	}
	return cfg
}

func newTestIncidentService(t *testing.T, cfg config.SimulationConfig, sink TelemetrySink) *IncidentService {
	t.Helper()
	s := NewIncidentService(cfg, simulator.NewGenerator(7), sink)
	t.Cleanup(s.Shutdown)
	return s
}

func TestNewIncidentServiceSeedsState(t *testing.T) {
	s := newTestIncidentService(t, defaultSimulation(), nil)

	snapshot := s.Snapshot()
	assert.Len(t, snapshot.Incidents, 10)
	assert.Len(t, snapshot.Alerts, 15)
	assert.Len(t, snapshot.ThreatDetections, 8)
	assert.Len(t, snapshot.Anomalies, 6)
	assert.Len(t, snapshot.SystemStatus, len(simulator.Components))
	assert.NotNil(t, snapshot.NetworkTraffic)
	assert.Empty(t, snapshot.NetworkTraffic)
	assert.True(t, snapshot.IsMonitoring)

	// seeded alerts are already correlated
	assert.Equal(t, snapshot.Alerts, simulator.CorrelateAlerts(snapshot.Alerts, 5*time.Minute))
}

func TestFeedsBoundTheirLists(t *testing.T) {
	s := newTestIncidentService(t, fastSimulation(1, 20), nil)
	s.Start(context.Background())

	assert.Eventually(t, func() bool {
		snapshot := s.Snapshot()
		return len(snapshot.NetworkTraffic) == 20 &&
			len(snapshot.Incidents) == 20 &&
			len(snapshot.Alerts) == 20 &&
			len(snapshot.ThreatDetections) == 20 &&
			len(snapshot.Anomalies) == 20
	}, 2*time.Second, 10*time.Millisecond)

	// lists never grow past the limit
	time.Sleep(30 * time.Millisecond)
	snapshot := s.Snapshot()
	assert.Len(t, snapshot.NetworkTraffic, 20)
	assert.Len(t, snapshot.Alerts, 20)
	assert.Len(t, snapshot.SystemStatus, len(simulator.Components))
}

func TestFeedsPrependNewest(t *testing.T) {
	cfg := fastSimulation(1, 500)
	s := newTestIncidentService(t, cfg, nil)
	before := s.Incidents()
	s.Start(context.Background())

	assert.Eventually(t, func() bool {
		return len(s.Incidents()) >= len(before)+3
	}, 2*time.Second, 5*time.Millisecond)
	s.Shutdown()

	incidents := s.Incidents()
	// the seeded incidents end up at the tail in their original order
	tail := incidents[len(incidents)-len(before):]
	for i := range before {
		assert.Equal(t, before[i].ID, tail[i].ID)
	}
	for i := 1; i < len(incidents)-len(before); i++ {
		assert.False(t, incidents[i-1].Timestamp.Before(incidents[i].Timestamp), "newest must come first")
	}
}

func TestAlertFeedKeepsAlertsCorrelated(t *testing.T) {
	s := newTestIncidentService(t, fastSimulation(1, 60), nil)
	s.Start(context.Background())

	assert.Eventually(t, func() bool {
		return len(s.Alerts()) == 60
	}, 2*time.Second, 10*time.Millisecond)
	s.Shutdown()

	alerts := s.Alerts()
	assert.Equal(t, alerts, simulator.CorrelateAlerts(alerts, 5*time.Minute))

	ids := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		ids[a.ID] = true
	}
	for _, a := range alerts {
		for _, related := range a.RelatedAlerts {
			assert.True(t, ids[related], "related alert %s must still be present", related)
		}
	}
}

func TestZeroProbabilityNeverFires(t *testing.T) {
	s := newTestIncidentService(t, fastSimulation(0, 100), nil)
	before := s.Snapshot()
	s.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	after := s.Snapshot()
	assert.Empty(t, after.NetworkTraffic)
	assert.Equal(t, before.Incidents, after.Incidents)
	assert.Equal(t, before.Alerts, after.Alerts)
	assert.Equal(t, before.SystemStatus, after.SystemStatus)
}

func TestToggleMonitoring(t *testing.T) {
	cfg := fastSimulation(0, 1000)
	cfg.Feeds.Traffic.Probability = 1
	s := newTestIncidentService(t, cfg, nil)
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return len(s.NetworkTraffic()) > 0 }, time.Second, 5*time.Millisecond)

	assert.False(t, s.ToggleMonitoring())
	assert.False(t, s.IsMonitoring())
	paused := len(s.NetworkTraffic())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, paused, len(s.NetworkTraffic()), "no traffic while paused")
	assert.False(t, s.Snapshot().IsMonitoring)

	assert.True(t, s.ToggleMonitoring())
	assert.Eventually(t, func() bool { return len(s.NetworkTraffic()) > paused }, time.Second, 5*time.Millisecond)
}

func TestToggleBeforeStart(t *testing.T) {
	s := newTestIncidentService(t, fastSimulation(1, 100), nil)

	assert.False(t, s.ToggleMonitoring())
	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, s.NetworkTraffic())

	assert.True(t, s.ToggleMonitoring())
	assert.Eventually(t, func() bool { return len(s.NetworkTraffic()) > 0 }, time.Second, 5*time.Millisecond)
}

func TestStartStopsWithContext(t *testing.T) {
	cfg := fastSimulation(0, 1000)
	cfg.Feeds.Traffic.Probability = 1
	s := newTestIncidentService(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return len(s.NetworkTraffic()) > 0 }, time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	stopped := len(s.NetworkTraffic())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, len(s.NetworkTraffic()))
}

func TestUpdateSchedule(t *testing.T) {
	s := newTestIncidentService(t, fastSimulation(0, 100), nil)
	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, s.NetworkTraffic())

	cfg := fastSimulation(0, 5)
	cfg.Feeds.Traffic.Probability = 1
	s.UpdateSchedule(cfg)

	assert.Eventually(t, func() bool { return len(s.NetworkTraffic()) == 5 }, time.Second, 5*time.Millisecond)
}

func TestResolveIncident(t *testing.T) {
	s := newTestIncidentService(t, defaultSimulation(), nil)
	incidents := s.Incidents()
	target := incidents[3]

	resolved, err := s.ResolveIncident(target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusResolved, resolved.Status)

	for i, incident := range s.Incidents() {
		if incident.ID == target.ID {
			assert.Equal(t, models.IncidentStatusResolved, incident.Status)
		} else {
			assert.Equal(t, incidents[i].Status, incident.Status)
		}
	}

	_, err = s.ResolveIncident("missing")
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestAcknowledgeAlert(t *testing.T) {
	s := newTestIncidentService(t, defaultSimulation(), nil)
	target := s.Alerts()[0]

	acked, err := s.AcknowledgeAlert(target.ID)
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)

	for _, alert := range s.Alerts() {
		assert.Equal(t, alert.ID == target.ID, alert.Acknowledged)
	}

	_, err = s.AcknowledgeAlert("missing")
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestAcknowledgementSurvivesCorrelation(t *testing.T) {
	cfg := fastSimulation(0, 100)
	cfg.Feeds.Alerts.Probability = 1
	s := newTestIncidentService(t, cfg, nil)
	target := s.Alerts()[0]
	_, err := s.AcknowledgeAlert(target.ID)
	require.NoError(t, err)

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return len(s.Alerts()) > 20 }, time.Second, 5*time.Millisecond)
	s.Shutdown()

	for _, alert := range s.Alerts() {
		if alert.ID == target.ID {
			assert.True(t, alert.Acknowledged)
			return
		}
	}
	t.Fatalf("alert %s disappeared", target.ID)
}

func TestSinkReceivesRecordsAndFailuresAreIgnored(t *testing.T) {
	sink := new(MockSink)
	sinkErr := errors.New("sink unavailable")
	published := make(chan struct{})
	var once sync.Once

	sink.On("PublishIncident", mock.Anything, mock.Anything).Return(sinkErr).Maybe()
	sink.On("PublishAlert", mock.Anything, mock.Anything).Return(sinkErr).Maybe()
	sink.On("PublishTraffic", mock.Anything, mock.Anything).Return(sinkErr).Run(func(mock.Arguments) {
		once.Do(func() { close(published) })
	})
	sink.On("PublishThreat", mock.Anything, mock.Anything).Return(sinkErr).Maybe()
	sink.On("PublishAnomaly", mock.Anything, mock.Anything).Return(sinkErr).Maybe()
	sink.On("PublishSystemStatus", mock.Anything, mock.Anything).Return(sinkErr).Maybe()

	s := newTestIncidentService(t, fastSimulation(1, 10), sink)
	s.Start(context.Background())

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("traffic never reached the sink")
	}
	assert.Eventually(t, func() bool { return len(s.NetworkTraffic()) == 10 }, 2*time.Second, 5*time.Millisecond)
	s.Shutdown()

	sink.AssertCalled(t, "PublishTraffic", mock.Anything, mock.AnythingOfType("models.NetworkTraffic"))
}

// stalledSink blocks every publish until its context ends
type stalledSink struct {
	NopSink
	calls chan struct{}
}

func (s stalledSink) PublishTraffic(ctx context.Context, _ models.NetworkTraffic) error {
	select {
	case s.calls <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestStalledSinkDoesNotSlowFeeds(t *testing.T) {
	sink := stalledSink{calls: make(chan struct{}, 1)}
	cfg := fastSimulation(0, 40)
	cfg.Feeds.Traffic.Probability = 1

	s := newTestIncidentService(t, cfg, sink)
	s.Start(context.Background())

	select {
	case <-sink.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("traffic never reached the sink")
	}

	// the sink is now stuck for the publish timeout, far longer than this
	assert.Eventually(t, func() bool { return len(s.NetworkTraffic()) == 40 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown waited on the stalled sink")
	}
}

func TestToggleKeepsCollectedData(t *testing.T) {
	s := newTestIncidentService(t, defaultSimulation(), nil)
	s.Start(context.Background())
	before := s.Snapshot()

	assert.False(t, s.ToggleMonitoring())
	assert.True(t, s.ToggleMonitoring())

	after := s.Snapshot()
	assert.Equal(t, before.Incidents, after.Incidents)
	assert.Equal(t, before.Alerts, after.Alerts)
	assert.Equal(t, before.ThreatDetections, after.ThreatDetections)
}

func TestConcurrentReadsDuringFeeds(t *testing.T) {
	s := newTestIncidentService(t, fastSimulation(1, 50), nil)
	s.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snapshot := s.Snapshot()
				if len(snapshot.Alerts) > 0 {
					_, _ = s.AcknowledgeAlert(snapshot.Alerts[0].ID)
				}
				if len(snapshot.Incidents) > 0 {
					_, _ = s.ResolveIncident(snapshot.Incidents[0].ID)
				}
			}
		}()
	}
	wg.Wait()
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestIncidentService(t, defaultSimulation(), nil)
	snapshot := s.Snapshot()
	snapshot.Incidents[0].Status = models.IncidentStatusResolved
	snapshot.Alerts[0].Acknowledged = true

	assert.NotEqual(t, models.IncidentStatusResolved, s.Incidents()[0].Status)
	assert.False(t, s.Alerts()[0].Acknowledged)
}

func TestPrependBounded(t *testing.T) {
	assert.Equal(t, []int{1}, prependBounded(nil, 1, 3))
	assert.Equal(t, []int{4, 3, 2}, prependBounded([]int{3, 2, 1}, 4, 3))
	assert.Equal(t, []int{4, 3, 2, 1}, prependBounded([]int{3, 2, 1}, 4, 0))

	original := []int{3, 2, 1}
	_ = prependBounded(original, 4, 3)
	assert.Equal(t, []int{3, 2, 1}, original)
}
