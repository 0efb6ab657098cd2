package timeplus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/timeplus-io/soc-dashboard/pkg/models"
	"github.com/timeplus-io/soc-dashboard/pkg/services"
)

// MockClient is a mock implementation of the TimeplusClient interface
type MockClient struct {
	mock.Mock
}

// Ensure MockClient implements TimeplusClient
var _ TimeplusClient = (*MockClient)(nil)

// Ensure Publisher can feed the incident service
var _ services.TelemetrySink = (*Publisher)(nil)

func (m *MockClient) StreamExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockClient) CreateStream(ctx context.Context, name string, schema []Column) error {
	args := m.Called(ctx, name, schema)
	return args.Error(0)
}

func (m *MockClient) DeleteStream(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockClient) ExecuteQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]map[string]interface{}), args.Error(1)
}

func (m *MockClient) InsertIntoStream(ctx context.Context, streamName string, columns []string, values []interface{}) error {
	args := m.Called(ctx, streamName, columns, values)
	return args.Error(0)
}

func (m *MockClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPublishIncident(t *testing.T) {
	mockClient := new(MockClient)
	publisher := NewPublisher(mockClient)
	ctx := context.Background()

	incident := models.Incident{
		ID:              "inc-1",
		Title:           "Web shell uploaded to DMZ host",
		Type:            models.IncidentTypeIntrusion,
		Severity:        models.SeverityHigh,
		Status:          models.IncidentStatusOpen,
		SourceIP:        "45.1.2.3",
		AffectedSystems: []string{"web-01"},
		Timestamp:       testTime,
	}

	mockClient.On("InsertIntoStream", ctx, IncidentsStream, columnNames(GetIncidentsSchema()), mock.MatchedBy(func(values []interface{}) bool {
		return len(values) == len(GetIncidentsSchema()) &&
			values[0] == "inc-1" &&
			values[3] == "intrusion" &&
			values[4] == "high" &&
			values[9] == testTime
	})).Return(nil)

	require.NoError(t, publisher.PublishIncident(ctx, incident))
	mockClient.AssertExpectations(t)
}

func TestPublishAlertUsesEmptyArrayForSingletons(t *testing.T) {
	mockClient := new(MockClient)
	publisher := NewPublisher(mockClient)
	ctx := context.Background()

	mockClient.On("InsertIntoStream", ctx, AlertsStream, mock.Anything, mock.MatchedBy(func(values []interface{}) bool {
		related, ok := values[7].([]string)
		return ok && related != nil && len(related) == 0
	})).Return(nil)

	require.NoError(t, publisher.PublishAlert(ctx, models.Alert{ID: "a1", Type: models.AlertTypePortScan, Timestamp: testTime}))
	mockClient.AssertExpectations(t)
}

func TestPublishEveryKind(t *testing.T) {
	mockClient := new(MockClient)
	publisher := NewPublisher(mockClient)
	ctx := context.Background()

	for stream, schema := range Streams() {
		s := schema
		mockClient.On("InsertIntoStream", ctx, stream, columnNames(s), mock.MatchedBy(func(values []interface{}) bool {
			return len(values) == len(s)
		})).Return(nil)
	}

	require.NoError(t, publisher.PublishIncident(ctx, models.Incident{ID: "i"}))
	require.NoError(t, publisher.PublishAlert(ctx, models.Alert{ID: "a"}))
	require.NoError(t, publisher.PublishTraffic(ctx, models.NetworkTraffic{ID: "n"}))
	require.NoError(t, publisher.PublishThreat(ctx, models.ThreatDetection{ID: "t"}))
	require.NoError(t, publisher.PublishAnomaly(ctx, models.AnomalyDetection{ID: "x"}))
	require.NoError(t, publisher.PublishSystemStatus(ctx, []models.SystemStatus{{Component: "SIEM"}, {Component: "Firewall"}}))

	mockClient.AssertNumberOfCalls(t, "InsertIntoStream", 7)
}

func TestPublishSystemStatusStopsOnError(t *testing.T) {
	mockClient := new(MockClient)
	publisher := NewPublisher(mockClient)
	ctx := context.Background()

	mockClient.On("InsertIntoStream", ctx, SystemStatusStream, mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	err := publisher.PublishSystemStatus(ctx, []models.SystemStatus{{Component: "SIEM"}, {Component: "Firewall"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIEM")
	mockClient.AssertNumberOfCalls(t, "InsertIntoStream", 1)
}

func TestSetupStreamsCreatesMissing(t *testing.T) {
	mockClient := new(MockClient)
	ctx := context.Background()

	mockClient.On("StreamExists", ctx, AlertsStream).Return(true, nil)
	for name, schema := range Streams() {
		if name == AlertsStream {
			continue
		}
		mockClient.On("StreamExists", ctx, name).Return(false, nil)
		mockClient.On("CreateStream", ctx, name, schema).Return(nil)
	}

	require.NoError(t, SetupStreams(ctx, mockClient))
	mockClient.AssertExpectations(t)
	mockClient.AssertNotCalled(t, "CreateStream", ctx, AlertsStream, mock.Anything)
}

func TestSetupStreamsPropagatesErrors(t *testing.T) {
	mockClient := new(MockClient)
	ctx := context.Background()

	mockClient.On("StreamExists", ctx, mock.Anything).Return(false, errors.New("unreachable"))
	assert.Error(t, SetupStreams(ctx, mockClient))
}

func TestStreamCounts(t *testing.T) {
	mockClient := new(MockClient)
	publisher := NewPublisher(mockClient)
	ctx := context.Background()

	mockClient.On("ExecuteQuery", ctx, mock.AnythingOfType("string")).Return([]map[string]interface{}{{"total": uint64(12)}}, nil)

	counts, err := publisher.StreamCounts(ctx, time.Hour)
	require.NoError(t, err)
	assert.Len(t, counts, len(Streams()))
	assert.Equal(t, uint64(12), counts[IncidentsStream])
}

func TestStreamCountsError(t *testing.T) {
	mockClient := new(MockClient)
	publisher := NewPublisher(mockClient)
	ctx := context.Background()

	mockClient.On("ExecuteQuery", ctx, mock.Anything).Return([]map[string]interface{}(nil), errors.New("timeout"))

	counts, err := publisher.StreamCounts(ctx, time.Minute)
	assert.Error(t, err)
	assert.Nil(t, counts)
}
