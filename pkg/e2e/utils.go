package e2e

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/timeplus-io/soc-dashboard/pkg/config"
	"github.com/timeplus-io/soc-dashboard/pkg/timeplus"
)

// TimeplusConfigFromEnv returns a config for a live Timeplus instance, or
// nil when TIMEPLUS_E2E_ADDRESS is unset
func TimeplusConfigFromEnv() *config.TimeplusConfig {
	address := os.Getenv("TIMEPLUS_E2E_ADDRESS")
	if address == "" {
		return nil
	}
	cfg := &config.TimeplusConfig{
		Enabled:   true,
		Address:   address,
		Username:  os.Getenv("TIMEPLUS_E2E_USERNAME"),
		Password:  os.Getenv("TIMEPLUS_E2E_PASSWORD"),
		Workspace: "default",
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}
	return cfg
}

// DropTelemetryStreams removes every telemetry stream so a run starts empty
func DropTelemetryStreams(ctx context.Context, client timeplus.TimeplusClient) error {
	for name := range timeplus.Streams() {
		if err := client.DeleteStream(ctx, name); err != nil {
			return fmt.Errorf("failed to drop stream %s: %w", name, err)
		}
	}
	return nil
}

// WaitForRows polls until every telemetry stream holds at least one row
func WaitForRows(ctx context.Context, publisher *timeplus.Publisher, timeout time.Duration) (map[string]uint64, error) {
	deadline := time.Now().Add(timeout)
	for {
		counts, err := publisher.StreamCounts(ctx, time.Hour)
		if err == nil {
			missing := 0
			for name := range timeplus.Streams() {
				if counts[name] == 0 {
					missing++
				}
			}
			if missing == 0 {
				return counts, nil
			}
			logrus.Infof("%d telemetry streams still empty, retrying in 1s", missing)
		} else {
			logrus.Warnf("Failed to count telemetry rows: %v", err)
		}

		if time.Now().After(deadline) {
			return counts, fmt.Errorf("timed out waiting for telemetry rows")
		}
		select {
		case <-ctx.Done():
			return counts, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
