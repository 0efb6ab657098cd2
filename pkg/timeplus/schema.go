package timeplus

// Stream names
const (
	IncidentsStream        = "soc_incidents"
	AlertsStream           = "soc_alerts"
	NetworkTrafficStream   = "soc_network_traffic"
	ThreatDetectionsStream = "soc_threat_detections"
	AnomaliesStream        = "soc_anomalies"
	SystemStatusStream     = "soc_system_status"
)

// GetIncidentsSchema returns the schema for the incidents stream
func GetIncidentsSchema() []Column {
	return []Column{
		{Name: "id", Type: "string"},
		{Name: "title", Type: "string"},
		{Name: "description", Type: "string"},
		{Name: "type", Type: "string"},
		{Name: "severity", Type: "string"},
		{Name: "status", Type: "string"},
		{Name: "source_ip", Type: "string"},
		{Name: "affected_systems", Type: "array(string)"},
		{Name: "assigned_to", Type: "string"},
		{Name: "timestamp", Type: "datetime64(3)"},
	}
}

// GetAlertsSchema returns the schema for the alerts stream
func GetAlertsSchema() []Column {
	return []Column{
		{Name: "id", Type: "string"},
		{Name: "type", Type: "string"},
		{Name: "severity", Type: "string"},
		{Name: "message", Type: "string"},
		{Name: "source", Type: "string"},
		{Name: "timestamp", Type: "datetime64(3)"},
		{Name: "correlation_id", Type: "string"},
		{Name: "related_alerts", Type: "array(string)"},
	}
}

// GetNetworkTrafficSchema returns the schema for the network traffic stream
func GetNetworkTrafficSchema() []Column {
	return []Column{
		{Name: "id", Type: "string"},
		{Name: "timestamp", Type: "datetime64(3)"},
		{Name: "source_ip", Type: "string"},
		{Name: "destination_ip", Type: "string"},
		{Name: "port", Type: "int32"},
		{Name: "protocol", Type: "string"},
		{Name: "bytes", Type: "int64"},
		{Name: "packets", Type: "int32"},
		{Name: "suspicious", Type: "bool"},
	}
}

// GetThreatDetectionsSchema returns the schema for the threat detections stream
func GetThreatDetectionsSchema() []Column {
	return []Column{
		{Name: "id", Type: "string"},
		{Name: "threat_type", Type: "string"},
		{Name: "severity", Type: "string"},
		{Name: "confidence", Type: "float64"},
		{Name: "source_ip", Type: "string"},
		{Name: "target", Type: "string"},
		{Name: "description", Type: "string"},
		{Name: "indicators", Type: "array(string)"},
		{Name: "mitre_technique", Type: "string"},
		{Name: "status", Type: "string"},
		{Name: "timestamp", Type: "datetime64(3)"},
	}
}

// GetAnomaliesSchema returns the schema for the anomalies stream
func GetAnomaliesSchema() []Column {
	return []Column{
		{Name: "id", Type: "string"},
		{Name: "anomaly_type", Type: "string"},
		{Name: "entity", Type: "string"},
		{Name: "metric", Type: "string"},
		{Name: "baseline", Type: "float64"},
		{Name: "observed", Type: "float64"},
		{Name: "deviation_score", Type: "float64"},
		{Name: "severity", Type: "string"},
		{Name: "description", Type: "string"},
		{Name: "timestamp", Type: "datetime64(3)"},
	}
}

// GetSystemStatusSchema returns the schema for the system status stream
func GetSystemStatusSchema() []Column {
	return []Column{
		{Name: "component", Type: "string"},
		{Name: "status", Type: "string"},
		{Name: "cpu_usage", Type: "float64"},
		{Name: "memory_usage", Type: "float64"},
		{Name: "uptime_seconds", Type: "int64"},
		{Name: "last_check", Type: "datetime64(3)"},
	}
}

// Streams maps every telemetry stream to its schema
func Streams() map[string][]Column {
	return map[string][]Column{
		IncidentsStream:        GetIncidentsSchema(),
		AlertsStream:           GetAlertsSchema(),
		NetworkTrafficStream:   GetNetworkTrafficSchema(),
		ThreatDetectionsStream: GetThreatDetectionsSchema(),
		AnomaliesStream:        GetAnomaliesSchema(),
		SystemStatusStream:     GetSystemStatusSchema(),
	}
}

// columnNames lists the column names of a schema in order
func columnNames(schema []Column) []string {
	names := make([]string, len(schema))
	for i, col := range schema {
		names[i] = col.Name
	}
	return names
}
