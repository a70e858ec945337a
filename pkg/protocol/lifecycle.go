package protocol

import (
	"log/slog"
	"net/http"
)

// Dependencies contains the collaborators built-in executors need.
// Nil services make the corresponding nodes fail with a clear message.
type Dependencies struct {
	Logger        *slog.Logger
	HTTPClient    *http.Client
	Devices       DeviceService
	Alarms        AlarmService
	Notifications NotificationService
	Database      DatabaseService
}
