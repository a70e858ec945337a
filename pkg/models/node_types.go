package models

// Built-in node types.
const (
	NodeTypeStart         = "start"
	NodeTypeEnd           = "end"
	NodeTypeCondition     = "condition"
	NodeTypeSwitch        = "switch"
	NodeTypeAPI           = "api"
	NodeTypeHTTP          = "http"
	NodeTypeDelay         = "delay"
	NodeTypeScript        = "script"
	NodeTypeDeviceQuery   = "device_query"
	NodeTypeDeviceControl = "device_control"
	NodeTypeDeviceData    = "device_data"
	NodeTypeDeviceStatus  = "device_status"
	NodeTypeAlarmTrigger  = "alarm_trigger"
	NodeTypeAlarmCheck    = "alarm_check"
	NodeTypeAlarmClear    = "alarm_clear"
	NodeTypeNotification  = "notification"
	NodeTypeEmail         = "email"
	NodeTypeSMS           = "sms"
	NodeTypeWebhook       = "webhook"
	NodeTypeDatabase      = "database"
	NodeTypeTransform     = "transform"
	NodeTypeLog           = "log"
	NodeTypeParallel      = "parallel"
	NodeTypeLoop          = "loop"
)

// Branch labels produced by boolean branching nodes.
const (
	BranchTrue  = "true"
	BranchFalse = "false"
)

func BoolBranch(b bool) string {
	if b {
		return BranchTrue
	}

	return BranchFalse
}
