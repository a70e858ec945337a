package protocol

import "context"

// DeviceService talks to field devices.
type DeviceService interface {
	Query(ctx context.Context, deviceID string, fields []string) (map[string]any, error)
	Control(ctx context.Context, deviceID, command string, params map[string]any) (map[string]any, error)
	CollectData(ctx context.Context, deviceID string, points []string) (map[string]any, error)
	GetStatus(ctx context.Context, deviceID string) (string, error)
}

type Alarm struct {
	Type     string         `json:"type"`
	Level    string         `json:"level"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	DeviceID string         `json:"device_id,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// AlarmService raises and clears alarms. Trigger returns the alarm id.
type AlarmService interface {
	Trigger(ctx context.Context, alarm Alarm) (string, error)
	Clear(ctx context.Context, alarmID, deviceID string) error
}

type Message struct {
	Channel    string         `json:"channel"`
	Recipients []string       `json:"recipients"`
	Subject    string         `json:"subject,omitempty"`
	Content    string         `json:"content"`
	Data       map[string]any `json:"data,omitempty"`
}

// NotificationService delivers messages. Send dispatches on Message.Channel.
type NotificationService interface {
	SendEmail(ctx context.Context, msg Message) error
	SendSMS(ctx context.Context, msg Message) error
	Send(ctx context.Context, msg Message) error
}

type QueryResult struct {
	Rows         []map[string]any `json:"rows,omitempty"`
	RowCount     int              `json:"row_count"`
	AffectedRows int64            `json:"affected_rows"`
}

// DatabaseService runs parameterised SQL on behalf of database nodes.
type DatabaseService interface {
	Query(ctx context.Context, query string, params []any) (QueryResult, error)
	Exec(ctx context.Context, query string, params []any) (QueryResult, error)
}
