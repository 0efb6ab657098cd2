package timeplus

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// SetupStreams creates every telemetry stream that does not exist yet
func SetupStreams(ctx context.Context, client TimeplusClient) error {
	streams := Streams()
	names := make([]string, 0, len(streams))
	for name := range streams {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		exists, err := client.StreamExists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check stream %s: %w", name, err)
		}
		if exists {
			continue
		}

		logrus.Infof("Creating telemetry stream: %s", name)
		if err := client.CreateStream(ctx, name, streams[name]); err != nil {
			return err
		}
	}
	return nil
}
