package timeplus

import (
	"context"
	"fmt"
	"time"

	"github.com/timeplus-io/soc-dashboard/pkg/models"
)

// Publisher writes generated telemetry into Timeplus streams
type Publisher struct {
	client TimeplusClient
}

// NewPublisher creates a publisher on top of client
func NewPublisher(client TimeplusClient) *Publisher {
	return &Publisher{client: client}
}

// PublishIncident inserts an incident
func (p *Publisher) PublishIncident(ctx context.Context, incident models.Incident) error {
	return p.client.InsertIntoStream(ctx, IncidentsStream, columnNames(GetIncidentsSchema()), []interface{}{
		incident.ID,
		incident.Title,
		incident.Description,
		string(incident.Type),
		string(incident.Severity),
		string(incident.Status),
		incident.SourceIP,
		nonNil(incident.AffectedSystems),
		incident.AssignedTo,
		incident.Timestamp,
	})
}

// PublishAlert inserts an alert with its correlation
func (p *Publisher) PublishAlert(ctx context.Context, alert models.Alert) error {
	return p.client.InsertIntoStream(ctx, AlertsStream, columnNames(GetAlertsSchema()), []interface{}{
		alert.ID,
		string(alert.Type),
		string(alert.Severity),
		alert.Message,
		alert.Source,
		alert.Timestamp,
		alert.CorrelationID,
		nonNil(alert.RelatedAlerts),
	})
}

// PublishTraffic inserts a network flow
func (p *Publisher) PublishTraffic(ctx context.Context, traffic models.NetworkTraffic) error {
	return p.client.InsertIntoStream(ctx, NetworkTrafficStream, columnNames(GetNetworkTrafficSchema()), []interface{}{
		traffic.ID,
		traffic.Timestamp,
		traffic.SourceIP,
		traffic.DestinationIP,
		traffic.Port,
		traffic.Protocol,
		traffic.Bytes,
		traffic.Packets,
		traffic.Suspicious,
	})
}

// PublishThreat inserts a threat detection
func (p *Publisher) PublishThreat(ctx context.Context, threat models.ThreatDetection) error {
	return p.client.InsertIntoStream(ctx, ThreatDetectionsStream, columnNames(GetThreatDetectionsSchema()), []interface{}{
		threat.ID,
		threat.ThreatType,
		string(threat.Severity),
		threat.Confidence,
		threat.SourceIP,
		threat.Target,
		threat.Description,
		nonNil(threat.Indicators),
		threat.MitreTechnique,
		string(threat.Status),
		threat.Timestamp,
	})
}

// PublishAnomaly inserts an anomaly
func (p *Publisher) PublishAnomaly(ctx context.Context, anomaly models.AnomalyDetection) error {
	return p.client.InsertIntoStream(ctx, AnomaliesStream, columnNames(GetAnomaliesSchema()), []interface{}{
		anomaly.ID,
		anomaly.AnomalyType,
		anomaly.Entity,
		anomaly.Metric,
		anomaly.Baseline,
		anomaly.Observed,
		anomaly.DeviationScore,
		string(anomaly.Severity),
		anomaly.Description,
		anomaly.Timestamp,
	})
}

// PublishSystemStatus inserts one row per component, stopping at the first failure
func (p *Publisher) PublishSystemStatus(ctx context.Context, statuses []models.SystemStatus) error {
	columns := columnNames(GetSystemStatusSchema())
	for _, status := range statuses {
		err := p.client.InsertIntoStream(ctx, SystemStatusStream, columns, []interface{}{
			status.Component,
			string(status.Status),
			status.CPUUsage,
			status.MemoryUsage,
			status.UptimeSeconds,
			status.LastCheck,
		})
		if err != nil {
			return fmt.Errorf("failed to publish status of %s: %w", status.Component, err)
		}
	}
	return nil
}

// StreamCounts returns the number of rows stored in each telemetry stream
// over the given lookback window
func (p *Publisher) StreamCounts(ctx context.Context, lookback time.Duration) (map[string]uint64, error) {
	counts := make(map[string]uint64)
	for name := range Streams() {
		query := fmt.Sprintf("SELECT count() AS total FROM table(`%s`) WHERE _tp_time > now() - interval %d second",
			name, int64(lookback.Seconds()))
		rows, err := p.client.ExecuteQuery(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		if len(rows) > 0 {
			counts[name] = toUint64(rows[0]["total"])
		}
	}
	return counts, nil
}

func toUint64(v interface{}) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case uint32:
		return uint64(n)
	case int:
		return uint64(n)
	case float64:
		return uint64(n)
	default:
		return 0
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
