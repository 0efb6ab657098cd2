package models

import (
	"time"
)

// NetworkTraffic is one observed flow
type NetworkTraffic struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SourceIP      string    `json:"sourceIp"`
	DestinationIP string    `json:"destinationIp"`
	Port          int       `json:"port"`
	Protocol      string    `json:"protocol"`
	Bytes         int64     `json:"bytes"`
	Packets       int       `json:"packets"`
	Suspicious    bool      `json:"suspicious"`
}

// ThreatStatus is the handling state of a detected threat
type ThreatStatus string

const (
	ThreatStatusDetected  ThreatStatus = "detected"
	ThreatStatusBlocked   ThreatStatus = "blocked"
	ThreatStatusMitigated ThreatStatus = "mitigated"
)

// ThreatDetection is a threat recognised by a detection engine
type ThreatDetection struct {
	ID             string       `json:"id"`
	ThreatType     string       `json:"threatType"`
	Severity       Severity     `json:"severity"`
	Confidence     float64      `json:"confidence"` // 0..1
	SourceIP       string       `json:"sourceIp"`
	Target         string       `json:"target"`
	Description    string       `json:"description"`
	Indicators     []string     `json:"indicators"`
	MitreTechnique string       `json:"mitreTechnique"`
	Status         ThreatStatus `json:"status"`
	Timestamp      time.Time    `json:"timestamp"`
}

// AnomalyDetection is a deviation from an observed baseline
type AnomalyDetection struct {
	ID             string    `json:"id"`
	AnomalyType    string    `json:"anomalyType"`
	Entity         string    `json:"entity"`
	Metric         string    `json:"metric"`
	Baseline       float64   `json:"baseline"`
	Observed       float64   `json:"observed"`
	DeviationScore float64   `json:"deviationScore"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	Timestamp      time.Time `json:"timestamp"`
}

// ComponentStatus is the health of a monitored security component
type ComponentStatus string

const (
	ComponentOnline   ComponentStatus = "online"
	ComponentDegraded ComponentStatus = "degraded"
	ComponentOffline  ComponentStatus = "offline"
)

// SystemStatus reports the health of one security component
type SystemStatus struct {
	Component     string          `json:"component"`
	Status        ComponentStatus `json:"status"`
	CPUUsage      float64         `json:"cpuUsage"`
	MemoryUsage   float64         `json:"memoryUsage"`
	UptimeSeconds int64           `json:"uptimeSeconds"`
	LastCheck     time.Time       `json:"lastCheck"`
}

// DashboardSnapshot is a point-in-time copy of everything the dashboard shows
type DashboardSnapshot struct {
	Incidents        []Incident         `json:"incidents"`
	Alerts           []Alert            `json:"alerts"`
	NetworkTraffic   []NetworkTraffic   `json:"networkTraffic"`
	ThreatDetections []ThreatDetection  `json:"threatDetections"`
	Anomalies        []AnomalyDetection `json:"anomalies"`
	SystemStatus     []SystemStatus     `json:"systemStatus"`
	IsMonitoring     bool               `json:"isMonitoring"`
	GeneratedAt      time.Time          `json:"generatedAt"`
}
