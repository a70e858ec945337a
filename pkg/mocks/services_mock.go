package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fieldflow/orchestrator/pkg/protocol"
)

// MockDeviceService is a mock implementation of protocol.DeviceService.
type MockDeviceService struct {
	mock.Mock
}

func (m *MockDeviceService) Query(ctx context.Context, deviceID string, fields []string) (map[string]any, error) {
	args := m.Called(ctx, deviceID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockDeviceService) Control(ctx context.Context, deviceID, command string, params map[string]any) (map[string]any, error) {
	args := m.Called(ctx, deviceID, command, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockDeviceService) CollectData(ctx context.Context, deviceID string, points []string) (map[string]any, error) {
	args := m.Called(ctx, deviceID, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockDeviceService) GetStatus(ctx context.Context, deviceID string) (string, error) {
	args := m.Called(ctx, deviceID)

	return args.String(0), args.Error(1)
}

// MockAlarmService is a mock implementation of protocol.AlarmService.
type MockAlarmService struct {
	mock.Mock
}

func (m *MockAlarmService) Trigger(ctx context.Context, alarm protocol.Alarm) (string, error) {
	args := m.Called(ctx, alarm)

	return args.String(0), args.Error(1)
}

func (m *MockAlarmService) Clear(ctx context.Context, alarmID, deviceID string) error {
	args := m.Called(ctx, alarmID, deviceID)

	return args.Error(0)
}

// MockNotificationService is a mock implementation of protocol.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendEmail(ctx context.Context, msg protocol.Message) error {
	args := m.Called(ctx, msg)

	return args.Error(0)
}

func (m *MockNotificationService) SendSMS(ctx context.Context, msg protocol.Message) error {
	args := m.Called(ctx, msg)

	return args.Error(0)
}

func (m *MockNotificationService) Send(ctx context.Context, msg protocol.Message) error {
	args := m.Called(ctx, msg)

	return args.Error(0)
}

// MockDatabaseService is a mock implementation of protocol.DatabaseService.
type MockDatabaseService struct {
	mock.Mock
}

func (m *MockDatabaseService) Query(ctx context.Context, query string, params []any) (protocol.QueryResult, error) {
	args := m.Called(ctx, query, params)

	return args.Get(0).(protocol.QueryResult), args.Error(1)
}

func (m *MockDatabaseService) Exec(ctx context.Context, query string, params []any) (protocol.QueryResult, error) {
	args := m.Called(ctx, query, params)

	return args.Get(0).(protocol.QueryResult), args.Error(1)
}
