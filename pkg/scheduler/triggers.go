package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// DefaultCronExpression is used when a cron expression cannot be parsed.
const DefaultCronExpression = "0 0 * * *"

var (
	ErrUnsupportedScheduleType = errors.New("unsupported schedule type")
	ErrInvalidInterval         = errors.New("interval_value must be a positive number")
	ErrInvalidRunAt            = errors.New("run_at must be an RFC3339 or \"2006-01-02 15:04:05\" timestamp")
)

// parser accepts 5-field, 6-field (leading seconds) and @descriptor expressions.
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

var intervalUnits = map[string]time.Duration{
	"second":  time.Second,
	"seconds": time.Second,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
}

var runAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// JobTrigger is the timing of one scheduled job.
type JobTrigger struct {
	Schedule    cron.Schedule
	Description string
	// Fallback is set when a malformed cron expression was replaced by
	// DefaultCronExpression.
	Fallback bool
}

// BuildTrigger turns a schedule type and its config into a cron.Schedule.
// loc is used unless the config names its own timezone.
func BuildTrigger(scheduleType models.ScheduleType, config models.Properties, loc *time.Location) (JobTrigger, error) {
	if loc == nil {
		loc = time.Local
	}

	if tz := config.String("timezone", ""); tz != "" {
		named, err := time.LoadLocation(tz)
		if err != nil {
			return JobTrigger{}, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}

		loc = named
	}

	switch scheduleType {
	case models.ScheduleTypeCron:
		return cronTrigger(cronExpression(config), loc), nil
	case models.ScheduleTypeInterval:
		return intervalTrigger(config)
	case models.ScheduleTypeOnce:
		return onceTrigger(config, loc)
	case models.ScheduleTypeDaily:
		return cronTrigger(fmt.Sprintf("%d %d * * *", config.Int("minute", 0), config.Int("hour", 0)), loc), nil
	case models.ScheduleTypeWeekly:
		dow := strings.ToLower(config.String("day_of_week", "0"))

		return cronTrigger(fmt.Sprintf("%d %d * * %s", config.Int("minute", 0), config.Int("hour", 0), dow), loc), nil
	case models.ScheduleTypeMonthly:
		return cronTrigger(fmt.Sprintf("%d %d %d * *", config.Int("minute", 0), config.Int("hour", 0), config.Int("day", 1)), loc), nil
	default:
		return JobTrigger{}, fmt.Errorf("%w: %q", ErrUnsupportedScheduleType, scheduleType)
	}
}

func cronExpression(config models.Properties) string {
	for _, key := range []string{"cron_expression", "expression", "cron"} {
		if expr := strings.TrimSpace(config.String(key, "")); expr != "" {
			return expr
		}
	}

	return ""
}

func cronTrigger(expr string, loc *time.Location) JobTrigger {
	schedule, err := parser.Parse(expr)
	if err != nil || expr == "" {
		schedule, _ = parser.Parse(DefaultCronExpression)

		return JobTrigger{Schedule: inLocation(schedule, loc), Description: "cron " + DefaultCronExpression, Fallback: true}
	}

	return JobTrigger{Schedule: inLocation(schedule, loc), Description: "cron " + expr}
}

// inLocation pins a parsed spec to loc unless it carried its own CRON_TZ.
func inLocation(schedule cron.Schedule, loc *time.Location) cron.Schedule {
	if spec, ok := schedule.(*cron.SpecSchedule); ok && spec.Location == time.Local {
		spec.Location = loc
	}

	return schedule
}

func intervalTrigger(config models.Properties) (JobTrigger, error) {
	value := config.Float("interval_value", 0)
	if value <= 0 {
		return JobTrigger{}, ErrInvalidInterval
	}

	unitName := strings.ToLower(config.String("interval_unit", "minutes"))

	unit, ok := intervalUnits[unitName]
	if !ok {
		return JobTrigger{}, fmt.Errorf("unsupported interval_unit %q", unitName)
	}

	every := time.Duration(value * float64(unit))

	return JobTrigger{Schedule: cron.Every(every), Description: "every " + every.String()}, nil
}

func onceTrigger(config models.Properties, loc *time.Location) (JobTrigger, error) {
	raw := config.String("run_at", "")

	for _, layout := range runAtLayouts {
		at, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return JobTrigger{Schedule: onceSchedule{at: at}, Description: "once at " + at.Format(time.RFC3339)}, nil
		}
	}

	return JobTrigger{}, ErrInvalidRunAt
}

// onceSchedule fires a single time. A zero Next keeps the entry idle, which
// is how robfig/cron represents "never again".
type onceSchedule struct {
	at time.Time
}

func (s onceSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}

	return time.Time{}
}
