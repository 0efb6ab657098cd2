package simulator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timeplus-io/soc-dashboard/pkg/models"
)

// Components are the security systems reported by SystemStatus
var Components = []string{
	"Firewall",
	"IDS/IPS",
	"SIEM",
	"Endpoint Protection",
	"Email Gateway",
	"VPN Gateway",
	"DNS Filter",
}

var incidentTitles = map[models.IncidentType][]string{
	models.IncidentTypeMalware:            {"Ransomware payload detected", "Trojan beaconing from workstation", "Malicious macro executed"},
	models.IncidentTypePhishing:           {"Credential phishing campaign", "Spear-phishing email reported", "Lookalike domain harvesting logins"},
	models.IncidentTypeIntrusion:          {"Web shell uploaded to DMZ host", "Exploitation of public-facing service", "Lateral movement over SMB"},
	models.IncidentTypeDDoS:               {"Volumetric flood on edge router", "HTTP flood against login page", "DNS amplification attack"},
	models.IncidentTypeDataBreach:         {"Customer records exposed", "Sensitive files copied to external storage", "Database dump posted online"},
	models.IncidentTypeUnauthorizedAccess: {"Privileged login from unknown location", "Disabled account used", "Service account misuse"},
	models.IncidentTypeInsiderThreat:      {"Bulk download before resignation", "Access outside job role", "Security controls tampered with"},
}

var incidentTypes = []models.IncidentType{
	models.IncidentTypeMalware,
	models.IncidentTypePhishing,
	models.IncidentTypeIntrusion,
	models.IncidentTypeDDoS,
	models.IncidentTypeDataBreach,
	models.IncidentTypeUnauthorizedAccess,
	models.IncidentTypeInsiderThreat,
}

var alertMessages = map[models.AlertType]string{
	models.AlertTypeIntrusionAttempt: "Repeated exploit attempts against %s",
	models.AlertTypeMalwareDetected:  "Malware signature matched on %s",
	models.AlertTypeSuspiciousLogin:  "Suspicious login activity for %s",
	models.AlertTypePolicyViolation:  "Security policy violated on %s",
	models.AlertTypePortScan:         "Port scan targeting %s",
	models.AlertTypeDataExfiltration: "Unusual outbound transfer from %s",
}

var alertTypes = []models.AlertType{
	models.AlertTypeIntrusionAttempt,
	models.AlertTypeMalwareDetected,
	models.AlertTypeSuspiciousLogin,
	models.AlertTypePolicyViolation,
	models.AlertTypePortScan,
	models.AlertTypeDataExfiltration,
}

var (
	protocols      = []string{"TCP", "UDP", "ICMP", "HTTP", "HTTPS", "DNS"}
	commonPorts    = []int{22, 53, 80, 443, 3306, 5432, 8080, 8443}
	attackPorts    = []int{23, 445, 1433, 3389, 4444, 5900, 6667}
	hosts          = []string{"web-01", "web-02", "db-01", "mail-01", "dc-01", "fileserver", "vpn-gw", "hr-laptop-17", "fin-ws-04"}
	analysts       = []string{"", "j.rivera", "a.chen", "m.okafor", "s.novak"}
	threatTypes    = []string{"Command and Control", "Brute Force", "SQL Injection", "Cross-Site Scripting", "Credential Stuffing", "Ransomware", "Cryptominer"}
	mitre          = []string{"T1059", "T1071", "T1110", "T1190", "T1486", "T1566", "T1078", "T1496"}
	anomalyMetrics = map[string]string{
		"traffic_spike":      "bytes_per_second",
		"login_pattern":      "failed_logins_per_hour",
		"data_transfer":      "outbound_mb_per_hour",
		"process_behavior":   "new_processes_per_minute",
		"privilege_use":      "privileged_calls_per_hour",
		"dns_query_patterns": "unique_domains_per_minute",
	}
	anomalyTypes = []string{"traffic_spike", "login_pattern", "data_transfer", "process_behavior", "privilege_use", "dns_query_patterns"}
)

// Generator produces random security telemetry
type Generator struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	now     func() time.Time
	started time.Time
}

// NewGenerator creates a generator. A zero seed is replaced by the current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rnd:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
		started: time.Now(),
	}
}

// SetClock replaces the time source used for timestamps
func (g *Generator) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
	g.started = now()
}

// Chance reports whether an event with probability p happens
func (g *Generator) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64() < p
}

// Incident generates a random incident
func (g *Generator) Incident() models.Incident {
	g.mu.Lock()
	defer g.mu.Unlock()

	incidentType := incidentTypes[g.rnd.Intn(len(incidentTypes))]
	titles := incidentTitles[incidentType]
	affected := g.pickHosts(1 + g.rnd.Intn(3))
	status := models.IncidentStatusOpen
	if g.rnd.Float64() < 0.3 {
		status = models.IncidentStatusInvestigating
	}

	source := g.externalIP()
	return models.Incident{
		ID:              uuid.NewString(),
		Title:           titles[g.rnd.Intn(len(titles))],
		Description:     fmt.Sprintf("%s activity originating from %s affecting %d system(s)", incidentType, source, len(affected)),
		Type:            incidentType,
		Severity:        g.severity(),
		Status:          status,
		SourceIP:        source,
		AffectedSystems: affected,
		AssignedTo:      analysts[g.rnd.Intn(len(analysts))],
		Timestamp:       g.now(),
	}
}

// Alert generates a random, uncorrelated alert
func (g *Generator) Alert() models.Alert {
	g.mu.Lock()
	defer g.mu.Unlock()

	alertType := alertTypes[g.rnd.Intn(len(alertTypes))]
	// alerts draw from a small pool of sources so that correlation has something to group
	source := hosts[g.rnd.Intn(len(hosts))]
	return models.Alert{
		ID:        uuid.NewString(),
		Type:      alertType,
		Severity:  g.severity(),
		Message:   fmt.Sprintf(alertMessages[alertType], source),
		Source:    source,
		Timestamp: g.now(),
	}
}

// NetworkTraffic generates a random network flow
func (g *Generator) NetworkTraffic() models.NetworkTraffic {
	g.mu.Lock()
	defer g.mu.Unlock()

	suspicious := g.rnd.Float64() < 0.1
	port := commonPorts[g.rnd.Intn(len(commonPorts))]
	if suspicious {
		port = attackPorts[g.rnd.Intn(len(attackPorts))]
	}
	packets := 1 + g.rnd.Intn(2000)
	return models.NetworkTraffic{
		ID:            uuid.NewString(),
		Timestamp:     g.now(),
		SourceIP:      g.internalIP(),
		DestinationIP: g.externalIP(),
		Port:          port,
		Protocol:      protocols[g.rnd.Intn(len(protocols))],
		Bytes:         int64(packets) * int64(64+g.rnd.Intn(1436)),
		Packets:       packets,
		Suspicious:    suspicious,
	}
}

// ThreatDetection generates a random threat detection
func (g *Generator) ThreatDetection() models.ThreatDetection {
	g.mu.Lock()
	defer g.mu.Unlock()

	threatType := threatTypes[g.rnd.Intn(len(threatTypes))]
	source := g.externalIP()
	target := hosts[g.rnd.Intn(len(hosts))]
	statuses := []models.ThreatStatus{models.ThreatStatusDetected, models.ThreatStatusBlocked, models.ThreatStatusMitigated}

	indicators := []string{"ip:" + source}
	if g.rnd.Float64() < 0.5 {
		indicators = append(indicators, fmt.Sprintf("sha256:%016x%016x", g.rnd.Uint64(), g.rnd.Uint64()))
	}
	if g.rnd.Float64() < 0.3 {
		indicators = append(indicators, fmt.Sprintf("domain:%s.example-bad.net", randomLabel(g.rnd, 8)))
	}

	return models.ThreatDetection{
		ID:             uuid.NewString(),
		ThreatType:     threatType,
		Severity:       g.severity(),
		Confidence:     round2(0.5 + g.rnd.Float64()*0.5),
		SourceIP:       source,
		Target:         target,
		Description:    fmt.Sprintf("%s detected from %s against %s", threatType, source, target),
		Indicators:     indicators,
		MitreTechnique: mitre[g.rnd.Intn(len(mitre))],
		Status:         statuses[g.rnd.Intn(len(statuses))],
		Timestamp:      g.now(),
	}
}

// AnomalyDetection generates a random anomaly
func (g *Generator) AnomalyDetection() models.AnomalyDetection {
	g.mu.Lock()
	defer g.mu.Unlock()

	anomalyType := anomalyTypes[g.rnd.Intn(len(anomalyTypes))]
	metric := anomalyMetrics[anomalyType]
	baseline := round2(10 + g.rnd.Float64()*90)
	factor := 1.5 + g.rnd.Float64()*4.5
	observed := round2(baseline * factor)
	score := round2(factor)

	severity := models.SeverityLow
	switch {
	case score >= 5:
		severity = models.SeverityCritical
	case score >= 3.5:
		severity = models.SeverityHigh
	case score >= 2.5:
		severity = models.SeverityMedium
	}

	entity := hosts[g.rnd.Intn(len(hosts))]
	return models.AnomalyDetection{
		ID:             uuid.NewString(),
		AnomalyType:    anomalyType,
		Entity:         entity,
		Metric:         metric,
		Baseline:       baseline,
		Observed:       observed,
		DeviationScore: score,
		Severity:       severity,
		Description:    fmt.Sprintf("%s on %s is %.1fx its baseline", metric, entity, factor),
		Timestamp:      g.now(),
	}
}

// SystemStatus generates a status entry for every component
func (g *Generator) SystemStatus() []models.SystemStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	uptime := int64(now.Sub(g.started).Seconds())
	statuses := make([]models.SystemStatus, 0, len(Components))
	for _, component := range Components {
		cpu := round2(5 + g.rnd.Float64()*90)
		mem := round2(20 + g.rnd.Float64()*75)

		status := models.ComponentOnline
		switch {
		case g.rnd.Float64() < 0.03:
			status = models.ComponentOffline
			cpu, mem = 0, 0
		case cpu > 85 || mem > 85:
			status = models.ComponentDegraded
		}

		componentUptime := uptime + int64(g.rnd.Intn(30*24*3600))
		if status == models.ComponentOffline {
			componentUptime = 0
		}

		statuses = append(statuses, models.SystemStatus{
			Component:     component,
			Status:        status,
			CPUUsage:      cpu,
			MemoryUsage:   mem,
			UptimeSeconds: componentUptime,
			LastCheck:     now,
		})
	}
	return statuses
}

// severity picks a severity, skewed towards the less serious end
func (g *Generator) severity() models.Severity {
	r := g.rnd.Float64()
	switch {
	case r < 0.35:
		return models.SeverityLow
	case r < 0.7:
		return models.SeverityMedium
	case r < 0.9:
		return models.SeverityHigh
	default:
		return models.SeverityCritical
	}
}

func (g *Generator) pickHosts(n int) []string {
	perm := g.rnd.Perm(len(hosts))
	picked := make([]string, 0, n)
	for _, i := range perm[:n] {
		picked = append(picked, hosts[i])
	}
	return picked
}

func (g *Generator) internalIP() string {
	return fmt.Sprintf("10.%d.%d.%d", g.rnd.Intn(256), g.rnd.Intn(256), 1+g.rnd.Intn(254))
}

func (g *Generator) externalIP() string {
	// stays clear of 10/8, loopback and multicast
	first := 11 + g.rnd.Intn(112)
	return fmt.Sprintf("%d.%d.%d.%d", first, g.rnd.Intn(256), g.rnd.Intn(256), 1+g.rnd.Intn(254))
}

func randomLabel(rnd *rand.Rand, n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rnd.Intn(len(letters))]
	}
	return string(b)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
