package models

import (
	"time"
)

// Severity represents how serious a security event is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity from least to most serious
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// IncidentStatus represents where an incident is in its lifecycle
type IncidentStatus string

const (
	IncidentStatusOpen          IncidentStatus = "open"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusResolved      IncidentStatus = "resolved"
)

// IncidentType classifies an incident
type IncidentType string

const (
	IncidentTypeMalware            IncidentType = "malware"
	IncidentTypePhishing           IncidentType = "phishing"
	IncidentTypeIntrusion          IncidentType = "intrusion"
	IncidentTypeDDoS               IncidentType = "ddos"
	IncidentTypeDataBreach         IncidentType = "data_breach"
	IncidentTypeUnauthorizedAccess IncidentType = "unauthorized_access"
	IncidentTypeInsiderThreat      IncidentType = "insider_threat"
)

// Incident represents a security incident tracked by the SOC
type Incident struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Type            IncidentType   `json:"type"`
	Severity        Severity       `json:"severity"`
	Status          IncidentStatus `json:"status"`
	SourceIP        string         `json:"sourceIp"`
	AffectedSystems []string       `json:"affectedSystems"`
	AssignedTo      string         `json:"assignedTo,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}
