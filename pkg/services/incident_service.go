package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/timeplus-io/soc-dashboard/pkg/config"
	"github.com/timeplus-io/soc-dashboard/pkg/models"
	"github.com/timeplus-io/soc-dashboard/pkg/simulator"
)

const (
	// publishQueueSize bounds the records waiting for the sink; newer ones
	// are dropped when it is full
	publishQueueSize = 256
	publishTimeout   = 5 * time.Second
)

// IncidentService holds the simulated dashboard state and the periodic
// feeds that refresh it
type IncidentService struct {
	generator *simulator.Generator
	sink      TelemetrySink

	mu               sync.RWMutex
	cfg              config.SimulationConfig
	incidents        []models.Incident
	networkTraffic   []models.NetworkTraffic
	systemStatus     []models.SystemStatus
	alerts           []models.Alert
	threatDetections []models.ThreatDetection
	anomalies        []models.AnomalyDetection
	monitoring       bool

	// lifecycleMu serialises Start, Shutdown, ToggleMonitoring and UpdateSchedule
	lifecycleMu sync.Mutex
	baseCtx     context.Context
	cancelFeeds context.CancelFunc
	wg          sync.WaitGroup

	// publishQueue is set before the feeds start and cleared after they exit
	publishQueue chan func(ctx context.Context)
}

type feed struct {
	name    string
	cfg     config.FeedConfig
	produce func()
}

// NewIncidentService creates the service and seeds the initial data.
// Monitoring is on, but no feed runs until Start is called.
func NewIncidentService(cfg config.SimulationConfig, generator *simulator.Generator, sink TelemetrySink) *IncidentService {
	if sink == nil {
		sink = NopSink{}
	}

	s := &IncidentService{
		generator:  generator,
		sink:       sink,
		cfg:        cfg,
		monitoring: true,
	}

	s.incidents = make([]models.Incident, 0, cfg.Initial.Incidents)
	for i := 0; i < cfg.Initial.Incidents; i++ {
		s.incidents = append(s.incidents, generator.Incident())
	}

	alerts := make([]models.Alert, 0, cfg.Initial.Alerts)
	for i := 0; i < cfg.Initial.Alerts; i++ {
		alerts = append(alerts, generator.Alert())
	}
	s.alerts = simulator.CorrelateAlerts(alerts, s.correlationWindow())

	s.threatDetections = make([]models.ThreatDetection, 0, cfg.Initial.Threats)
	for i := 0; i < cfg.Initial.Threats; i++ {
		s.threatDetections = append(s.threatDetections, generator.ThreatDetection())
	}

	s.anomalies = make([]models.AnomalyDetection, 0, cfg.Initial.Anomalies)
	for i := 0; i < cfg.Initial.Anomalies; i++ {
		s.anomalies = append(s.anomalies, generator.AnomalyDetection())
	}

	s.systemStatus = generator.SystemStatus()
	s.networkTraffic = []models.NetworkTraffic{}

	logrus.Infof("Seeded %d incidents, %d alerts, %d threat detections, %d anomalies",
		len(s.incidents), len(s.alerts), len(s.threatDetections), len(s.anomalies))
	return s
}

// correlationWindow must be called with mu held or before the service is shared
func (s *IncidentService) correlationWindow() time.Duration {
	return time.Duration(s.cfg.CorrelationWindowSeconds) * time.Second
}

// Start runs the feeds if monitoring is on. ctx bounds the lifetime of every feed.
func (s *IncidentService) Start(ctx context.Context) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.baseCtx = ctx
	if s.IsMonitoring() {
		s.startFeedsLocked()
	}
}

// Shutdown stops every feed and waits for them to exit
func (s *IncidentService) Shutdown() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.stopFeedsLocked()
	s.baseCtx = nil
	logrus.Info("Incident service stopped")
}

// ToggleMonitoring pauses or resumes the feeds and returns the new state.
// Collected data is kept across a pause; nothing is reseeded on resume.
func (s *IncidentService) ToggleMonitoring() bool {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.Lock()
	s.monitoring = !s.monitoring
	monitoring := s.monitoring
	s.mu.Unlock()

	if monitoring {
		if s.baseCtx != nil {
			s.startFeedsLocked()
		}
		logrus.Info("Monitoring resumed")
	} else {
		s.stopFeedsLocked()
		logrus.Info("Monitoring paused")
	}
	return monitoring
}

// IsMonitoring reports whether the feeds are enabled
func (s *IncidentService) IsMonitoring() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monitoring
}

// UpdateSchedule swaps in a new simulation config, restarting running feeds
func (s *IncidentService) UpdateSchedule(cfg config.SimulationConfig) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	running := s.cancelFeeds != nil
	if running {
		s.stopFeedsLocked()
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	logrus.Info("Simulation schedule updated")

	if running {
		s.startFeedsLocked()
	}
}

func (s *IncidentService) startFeedsLocked() {
	if s.cancelFeeds != nil {
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancelFeeds = cancel

	s.publishQueue = make(chan func(ctx context.Context), publishQueueSize)
	s.wg.Add(1)
	go s.runPublisher(ctx, s.publishQueue)

	for _, f := range s.feeds() {
		if f.cfg.IntervalMs <= 0 {
			logrus.Warnf("Feed %s has no interval, not starting it", f.name)
			continue
		}
		s.wg.Add(1)
		go s.runFeed(ctx, f)
	}
	logrus.Info("Simulation feeds started")
}

func (s *IncidentService) stopFeedsLocked() {
	if s.cancelFeeds == nil {
		return
	}
	s.cancelFeeds()
	s.wg.Wait()
	s.cancelFeeds = nil
	s.publishQueue = nil
	logrus.Info("Simulation feeds stopped")
}

func (s *IncidentService) feeds() []feed {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return []feed{
		{name: "incidents", cfg: s.cfg.Feeds.Incidents, produce: s.generateIncident},
		{name: "traffic", cfg: s.cfg.Feeds.Traffic, produce: s.generateTraffic},
		{name: "alerts", cfg: s.cfg.Feeds.Alerts, produce: s.generateAlert},
		{name: "threats", cfg: s.cfg.Feeds.Threats, produce: s.generateThreat},
		{name: "anomalies", cfg: s.cfg.Feeds.Anomalies, produce: s.generateAnomaly},
		{name: "systemStatus", cfg: s.cfg.Feeds.SystemStatus, produce: s.refreshSystemStatus},
	}
}

func (s *IncidentService) runFeed(ctx context.Context, f feed) {
	defer s.wg.Done()

	ticker := time.NewTicker(f.cfg.Interval())
	defer ticker.Stop()

	logrus.Debugf("Feed %s running every %v (p=%.2f)", f.name, f.cfg.Interval(), f.cfg.Probability)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.generator.Chance(f.cfg.Probability) {
				f.produce()
			}
		}
	}
}

// runPublisher hands queued records to the sink off the feed goroutines, so
// a slow sink never changes the feed cadence. Records still queued when the
// feeds stop are dropped.
func (s *IncidentService) runPublisher(ctx context.Context, queue <-chan func(ctx context.Context)) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-queue:
			publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			job(publishCtx)
			cancel()
		}
	}
}

// publish queues a sink call; failures are logged and never touch state
func (s *IncidentService) publish(what string, call func(ctx context.Context) error) {
	if _, ok := s.sink.(NopSink); ok {
		return
	}

	job := func(ctx context.Context) {
		if err := call(ctx); err != nil {
			logrus.Warnf("Failed to publish %s: %v", what, err)
		}
	}
	select {
	case s.publishQueue <- job:
	default:
		logrus.Warnf("Telemetry queue full, dropping %s", what)
	}
}

func (s *IncidentService) generateIncident() {
	incident := s.generator.Incident()

	s.mu.Lock()
	s.incidents = prependBounded(s.incidents, incident, s.cfg.Feeds.Incidents.Limit)
	s.mu.Unlock()

	logrus.Debugf("New %s incident: %s", incident.Severity, incident.Title)
	s.publish("incident "+incident.ID, func(ctx context.Context) error {
		return s.sink.PublishIncident(ctx, incident)
	})
}

func (s *IncidentService) generateTraffic() {
	traffic := s.generator.NetworkTraffic()

	s.mu.Lock()
	s.networkTraffic = prependBounded(s.networkTraffic, traffic, s.cfg.Feeds.Traffic.Limit)
	s.mu.Unlock()

	s.publish("traffic "+traffic.ID, func(ctx context.Context) error {
		return s.sink.PublishTraffic(ctx, traffic)
	})
}

func (s *IncidentService) generateAlert() {
	alert := s.generator.Alert()

	s.mu.Lock()
	// bound first so that no surviving alert refers to a dropped one
	bounded := prependBounded(s.alerts, alert, s.cfg.Feeds.Alerts.Limit)
	s.alerts = simulator.CorrelateAlerts(bounded, s.correlationWindow())
	alert = s.alerts[0]
	s.mu.Unlock()

	if alert.CorrelationID != "" {
		logrus.Debugf("Alert %s correlated into %s with %d others", alert.ID, alert.CorrelationID, len(alert.RelatedAlerts))
	}
	s.publish("alert "+alert.ID, func(ctx context.Context) error {
		return s.sink.PublishAlert(ctx, alert)
	})
}

func (s *IncidentService) generateThreat() {
	threat := s.generator.ThreatDetection()

	s.mu.Lock()
	s.threatDetections = prependBounded(s.threatDetections, threat, s.cfg.Feeds.Threats.Limit)
	s.mu.Unlock()

	s.publish("threat detection "+threat.ID, func(ctx context.Context) error {
		return s.sink.PublishThreat(ctx, threat)
	})
}

func (s *IncidentService) generateAnomaly() {
	anomaly := s.generator.AnomalyDetection()

	s.mu.Lock()
	s.anomalies = prependBounded(s.anomalies, anomaly, s.cfg.Feeds.Anomalies.Limit)
	s.mu.Unlock()

	s.publish("anomaly "+anomaly.ID, func(ctx context.Context) error {
		return s.sink.PublishAnomaly(ctx, anomaly)
	})
}

func (s *IncidentService) refreshSystemStatus() {
	statuses := s.generator.SystemStatus()

	s.mu.Lock()
	s.systemStatus = statuses
	s.mu.Unlock()

	s.publish("system status", func(ctx context.Context) error {
		return s.sink.PublishSystemStatus(ctx, statuses)
	})
}

// ResolveIncident marks an incident as resolved
func (s *IncidentService) ResolveIncident(incidentID string) (models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.incidents {
		if s.incidents[i].ID == incidentID {
			s.incidents[i].Status = models.IncidentStatusResolved
			logrus.Infof("Incident %s resolved", incidentID)
			return s.incidents[i], nil
		}
	}
	return models.Incident{}, ErrIncidentNotFound
}

// AcknowledgeAlert marks an alert as acknowledged
func (s *IncidentService) AcknowledgeAlert(alertID string) (models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID == alertID {
			s.alerts[i].Acknowledged = true
			logrus.Infof("Alert %s acknowledged", alertID)
			return s.alerts[i], nil
		}
	}
	return models.Alert{}, ErrAlertNotFound
}

// Incidents returns the incidents, newest first
func (s *IncidentService) Incidents() []models.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.incidents)
}

// Alerts returns the correlated alerts, newest first
func (s *IncidentService) Alerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.alerts)
}

// NetworkTraffic returns the recent flows, newest first
func (s *IncidentService) NetworkTraffic() []models.NetworkTraffic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.networkTraffic)
}

// ThreatDetections returns the recent threat detections, newest first
func (s *IncidentService) ThreatDetections() []models.ThreatDetection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.threatDetections)
}

// Anomalies returns the recent anomalies, newest first
func (s *IncidentService) Anomalies() []models.AnomalyDetection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.anomalies)
}

// SystemStatus returns the latest component health
func (s *IncidentService) SystemStatus() []models.SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.systemStatus)
}

// Snapshot returns a consistent copy of the whole dashboard state
func (s *IncidentService) Snapshot() models.DashboardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.DashboardSnapshot{
		Incidents:        cloneSlice(s.incidents),
		Alerts:           cloneSlice(s.alerts),
		NetworkTraffic:   cloneSlice(s.networkTraffic),
		ThreatDetections: cloneSlice(s.threatDetections),
		Anomalies:        cloneSlice(s.anomalies),
		SystemStatus:     cloneSlice(s.systemStatus),
		IsMonitoring:     s.monitoring,
		GeneratedAt:      time.Now(),
	}
}

// prependBounded returns a new slice with item first followed by list,
// truncated to limit entries. A limit of zero or less means unbounded.
func prependBounded[T any](list []T, item T, limit int) []T {
	n := len(list) + 1
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]T, n)
	out[0] = item
	copy(out[1:], list)
	return out
}

func cloneSlice[T any](list []T) []T {
	out := make([]T, len(list))
	copy(out, list)
	return out
}
