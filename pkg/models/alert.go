package models

import (
	"time"
)

// AlertType classifies an alert raised by a sensor
type AlertType string

const (
	AlertTypeIntrusionAttempt AlertType = "intrusion_attempt"
	AlertTypeMalwareDetected  AlertType = "malware_detected"
	AlertTypeSuspiciousLogin  AlertType = "suspicious_login"
	AlertTypePolicyViolation  AlertType = "policy_violation"
	AlertTypePortScan         AlertType = "port_scan"
	AlertTypeDataExfiltration AlertType = "data_exfiltration"
)

// Alert represents a single alert instance
type Alert struct {
	ID            string    `json:"id"`
	Type          AlertType `json:"type"`
	Severity      Severity  `json:"severity"`
	Message       string    `json:"message"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
	Acknowledged  bool      `json:"acknowledged"`
	CorrelationID string    `json:"correlationId,omitempty"`
	RelatedAlerts []string  `json:"relatedAlerts,omitempty"`
}
