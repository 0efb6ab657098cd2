package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeplus-io/soc-dashboard/pkg/models"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g := NewGenerator(42)
	g.SetClock(func() time.Time { return fixedNow })
	return g
}

func TestChanceBounds(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 100; i++ {
		assert.False(t, g.Chance(0))
		assert.False(t, g.Chance(-1))
		assert.True(t, g.Chance(1))
	}

	hits := 0
	for i := 0; i < 10000; i++ {
		if g.Chance(0.3) {
			hits++
		}
	}
	assert.InDelta(t, 3000, hits, 300)
}

func TestIncidentShape(t *testing.T) {
	g := newTestGenerator(t)
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		inc := g.Incident()
		require.NotEmpty(t, inc.ID)
		assert.False(t, seen[inc.ID], "duplicate id %s", inc.ID)
		seen[inc.ID] = true

		assert.Contains(t, incidentTypes, inc.Type)
		assert.Contains(t, models.Severities, inc.Severity)
		assert.Contains(t, []models.IncidentStatus{models.IncidentStatusOpen, models.IncidentStatusInvestigating}, inc.Status)
		assert.NotEmpty(t, inc.Title)
		assert.NotEmpty(t, inc.SourceIP)
		assert.NotEmpty(t, inc.AffectedSystems)
		assert.LessOrEqual(t, len(inc.AffectedSystems), 3)
		assert.Equal(t, fixedNow, inc.Timestamp)
	}
}

func TestAlertShape(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 200; i++ {
		alert := g.Alert()
		assert.NotEmpty(t, alert.ID)
		assert.Contains(t, alertTypes, alert.Type)
		assert.Contains(t, hosts, alert.Source)
		assert.Contains(t, alert.Message, alert.Source)
		assert.False(t, alert.Acknowledged)
		assert.Empty(t, alert.CorrelationID)
		assert.Empty(t, alert.RelatedAlerts)
	}
}

func TestNetworkTrafficShape(t *testing.T) {
	g := newTestGenerator(t)
	suspicious := 0
	for i := 0; i < 500; i++ {
		flow := g.NetworkTraffic()
		assert.Contains(t, protocols, flow.Protocol)
		assert.Positive(t, flow.Packets)
		assert.GreaterOrEqual(t, flow.Bytes, int64(flow.Packets)*64)
		if flow.Suspicious {
			suspicious++
			assert.Contains(t, attackPorts, flow.Port)
		} else {
			assert.Contains(t, commonPorts, flow.Port)
		}
	}
	assert.Positive(t, suspicious)
	assert.Less(t, suspicious, 150)
}

func TestThreatDetectionShape(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 200; i++ {
		threat := g.ThreatDetection()
		assert.GreaterOrEqual(t, threat.Confidence, 0.5)
		assert.LessOrEqual(t, threat.Confidence, 1.0)
		assert.Contains(t, threatTypes, threat.ThreatType)
		assert.Contains(t, mitre, threat.MitreTechnique)
		require.NotEmpty(t, threat.Indicators)
		assert.Equal(t, "ip:"+threat.SourceIP, threat.Indicators[0])
	}
}

func TestAnomalySeverityFollowsDeviation(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 200; i++ {
		anomaly := g.AnomalyDetection()
		assert.Greater(t, anomaly.Observed, anomaly.Baseline)
		assert.Equal(t, anomalyMetrics[anomaly.AnomalyType], anomaly.Metric)

		switch {
		case anomaly.DeviationScore >= 5:
			assert.Equal(t, models.SeverityCritical, anomaly.Severity)
		case anomaly.DeviationScore >= 3.5:
			assert.Equal(t, models.SeverityHigh, anomaly.Severity)
		case anomaly.DeviationScore >= 2.5:
			assert.Equal(t, models.SeverityMedium, anomaly.Severity)
		default:
			assert.Equal(t, models.SeverityLow, anomaly.Severity)
		}
	}
}

func TestSystemStatusCoversAllComponents(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 50; i++ {
		statuses := g.SystemStatus()
		require.Len(t, statuses, len(Components))
		for j, status := range statuses {
			assert.Equal(t, Components[j], status.Component)
			assert.Equal(t, fixedNow, status.LastCheck)
			switch status.Status {
			case models.ComponentOffline:
				assert.Zero(t, status.UptimeSeconds)
			case models.ComponentDegraded:
				assert.True(t, status.CPUUsage > 85 || status.MemoryUsage > 85)
			case models.ComponentOnline:
				assert.LessOrEqual(t, status.CPUUsage, 85.0)
				assert.LessOrEqual(t, status.MemoryUsage, 85.0)
			default:
				t.Fatalf("unexpected status %q", status.Status)
			}
		}
	}
}
