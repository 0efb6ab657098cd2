package main

import (
	"context"
	"flag"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/timeplus-io/soc-dashboard/pkg/config"
	"github.com/timeplus-io/soc-dashboard/pkg/timeplus"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	drop := flag.Bool("drop", false, "drop the telemetry streams before creating them")
	flag.Parse()

	logrus.SetLevel(logrus.InfoLevel)
	logrus.Info("Setting up telemetry streams for the SOC dashboard")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	client, err := timeplus.NewClient(&cfg.Timeplus)
	if err != nil {
		logrus.Fatalf("Failed to connect to Timeplus: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	names := make([]string, 0, len(timeplus.Streams()))
	for name := range timeplus.Streams() {
		names = append(names, name)
	}
	sort.Strings(names)

	if *drop {
		for _, name := range names {
			logrus.Infof("Dropping stream %s", name)
			if err := client.DeleteStream(ctx, name); err != nil {
				logrus.Warnf("Failed to drop stream %s: %v", name, err)
			}
		}
	}

	if err := timeplus.SetupStreams(ctx, client); err != nil {
		logrus.Fatalf("Failed to set up streams: %v", err)
	}

	// Verify streams exist
	for _, name := range names {
		exists, err := client.StreamExists(ctx, name)
		if err != nil {
			logrus.Warnf("Failed to check stream %s: %v", name, err)
			continue
		}
		logrus.Infof("Stream %s exists: %t", name, exists)
	}
	logrus.Info("Setup completed")
}
