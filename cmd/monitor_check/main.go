package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/timeplus-io/soc-dashboard/pkg/models"
)

// dashboardClient talks to a running dashboard server
type dashboardClient struct {
	baseURL string
	http    *http.Client
}

func (c *dashboardClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *dashboardClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *dashboardClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// logSummary prints the headline numbers of a snapshot
func logSummary(snapshot models.DashboardSnapshot) {
	openIncidents := 0
	for _, incident := range snapshot.Incidents {
		if incident.Status != models.IncidentStatusResolved {
			openIncidents++
		}
	}

	unacked := 0
	groups := make(map[string]struct{})
	for _, alert := range snapshot.Alerts {
		if !alert.Acknowledged {
			unacked++
		}
		if alert.CorrelationID != "" {
			groups[alert.CorrelationID] = struct{}{}
		}
	}

	suspicious := 0
	for _, flow := range snapshot.NetworkTraffic {
		if flow.Suspicious {
			suspicious++
		}
	}

	degraded := 0
	for _, status := range snapshot.SystemStatus {
		if status.Status != models.ComponentOnline {
			degraded++
		}
	}

	logrus.Infof("monitoring=%t incidents=%d (open %d) alerts=%d (unacked %d, correlated groups %d) traffic=%d (suspicious %d) threats=%d anomalies=%d components not online=%d",
		snapshot.IsMonitoring,
		len(snapshot.Incidents), openIncidents,
		len(snapshot.Alerts), unacked, len(groups),
		len(snapshot.NetworkTraffic), suspicious,
		len(snapshot.ThreatDetections),
		len(snapshot.Anomalies),
		degraded)
}

func main() {
	server := flag.String("server", "http://localhost:8080", "dashboard server URL")
	username := flag.String("username", "admin", "user to log in as")
	password := flag.String("password", "password", "demo password")
	interval := flag.Duration("interval", 5*time.Second, "polling interval")
	flag.Parse()

	client := &dashboardClient{
		baseURL: *server,
		http:    &http.Client{Timeout: 10 * time.Second},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var user models.User
	if err := client.post(ctx, "/api/auth/login", models.LoginCredentials{Username: *username, Password: *password}, &user); err != nil {
		logrus.Fatalf("Failed to log in: %v", err)
	}
	logrus.Infof("Logged in as %s (%s)", user.Username, user.Role.Name)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		var snapshot models.DashboardSnapshot
		if err := client.get(ctx, "/api/dashboard", &snapshot); err != nil {
			logrus.Errorf("Failed to fetch dashboard: %v", err)
		} else {
			logSummary(snapshot)
		}

		select {
		case <-ctx.Done():
			logrus.Info("Monitor check stopped")
			return
		case <-ticker.C:
		}
	}
}
