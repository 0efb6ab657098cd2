package services

import (
	"context"

	"github.com/timeplus-io/soc-dashboard/pkg/models"
)

// TelemetrySink receives every record the simulator generates
type TelemetrySink interface {
	PublishIncident(ctx context.Context, incident models.Incident) error
	PublishAlert(ctx context.Context, alert models.Alert) error
	PublishTraffic(ctx context.Context, traffic models.NetworkTraffic) error
	PublishThreat(ctx context.Context, threat models.ThreatDetection) error
	PublishAnomaly(ctx context.Context, anomaly models.AnomalyDetection) error
	PublishSystemStatus(ctx context.Context, statuses []models.SystemStatus) error
}

// NopSink discards everything
type NopSink struct{}

var _ TelemetrySink = NopSink{}

func (NopSink) PublishIncident(context.Context, models.Incident) error { return nil }

func (NopSink) PublishAlert(context.Context, models.Alert) error { return nil }

func (NopSink) PublishTraffic(context.Context, models.NetworkTraffic) error { return nil }

func (NopSink) PublishThreat(context.Context, models.ThreatDetection) error { return nil }

func (NopSink) PublishAnomaly(context.Context, models.AnomalyDetection) error { return nil }

func (NopSink) PublishSystemStatus(context.Context, []models.SystemStatus) error { return nil }
