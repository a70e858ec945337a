package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/models"
)

var reference = time.Date(2026, 10, 18, 13, 45, 10, 0, time.UTC)

func TestBuildTrigger_Cron(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		config   models.Properties
		next     time.Time
		fallback bool
	}{
		{
			name:   "five fields",
			config: models.Properties{"cron_expression": "0 0 * * *"},
			next:   time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "six fields with seconds",
			config: models.Properties{"cron_expression": "*/30 * * * * *"},
			next:   time.Date(2026, 10, 18, 13, 45, 30, 0, time.UTC),
		},
		{
			name:   "descriptor",
			config: models.Properties{"expression": "@hourly"},
			next:   time.Date(2026, 10, 18, 14, 0, 0, 0, time.UTC),
		},
		{
			name:   "every five minutes",
			config: models.Properties{"cron": "*/5 * * * *"},
			next:   time.Date(2026, 10, 18, 13, 50, 0, 0, time.UTC),
		},
		{
			name:     "malformed falls back to midnight",
			config:   models.Properties{"cron_expression": "not a cron"},
			next:     time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
			fallback: true,
		},
		{
			name:     "missing expression falls back to midnight",
			config:   models.Properties{},
			next:     time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
			fallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trigger, err := BuildTrigger(models.ScheduleTypeCron, tt.config, time.UTC)
			require.NoError(t, err)

			assert.Equal(t, tt.fallback, trigger.Fallback)
			assert.Equal(t, tt.next, trigger.Schedule.Next(reference))
		})
	}
}

func TestBuildTrigger_CronNextMidnightFromNow(t *testing.T) {
	t.Parallel()

	trigger, err := BuildTrigger(models.ScheduleTypeCron, models.Properties{"cron_expression": "0 0 * * *"}, time.UTC)
	require.NoError(t, err)

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	assert.Equal(t, midnight, trigger.Schedule.Next(now))
}

func TestBuildTrigger_Calendar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		scheduleType models.ScheduleType
		config       models.Properties
		next         time.Time
	}{
		{
			name:         "daily later today",
			scheduleType: models.ScheduleTypeDaily,
			config:       models.Properties{"hour": 18, "minute": 30},
			next:         time.Date(2026, 10, 18, 18, 30, 0, 0, time.UTC),
		},
		{
			name:         "daily tomorrow",
			scheduleType: models.ScheduleTypeDaily,
			config:       models.Properties{"hour": 9},
			next:         time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		},
		{
			name:         "weekly by number",
			scheduleType: models.ScheduleTypeWeekly,
			config:       models.Properties{"day_of_week": "3", "hour": 8},
			next:         time.Date(2026, 10, 21, 8, 0, 0, 0, time.UTC),
		},
		{
			name:         "weekly by name",
			scheduleType: models.ScheduleTypeWeekly,
			config:       models.Properties{"day_of_week": "MON", "hour": 7, "minute": 15},
			next:         time.Date(2026, 10, 19, 7, 15, 0, 0, time.UTC),
		},
		{
			name:         "monthly",
			scheduleType: models.ScheduleTypeMonthly,
			config:       models.Properties{"day": 15, "hour": 6},
			next:         time.Date(2026, 11, 15, 6, 0, 0, 0, time.UTC),
		},
		{
			name:         "monthly defaults to the first",
			scheduleType: models.ScheduleTypeMonthly,
			config:       models.Properties{},
			next:         time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trigger, err := BuildTrigger(tt.scheduleType, tt.config, time.UTC)
			require.NoError(t, err)

			assert.False(t, trigger.Fallback)
			assert.Equal(t, tt.next, trigger.Schedule.Next(reference))
		})
	}
}

func TestBuildTrigger_Interval(t *testing.T) {
	t.Parallel()

	trigger, err := BuildTrigger(models.ScheduleTypeInterval, models.Properties{
		"interval_value": 30,
		"interval_unit":  "seconds",
	}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, reference.Add(30*time.Second), trigger.Schedule.Next(reference))
	assert.Equal(t, "every 30s", trigger.Description)

	trigger, err = BuildTrigger(models.ScheduleTypeInterval, models.Properties{"interval_value": 2}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, reference.Add(2*time.Minute), trigger.Schedule.Next(reference))

	_, err = BuildTrigger(models.ScheduleTypeInterval, models.Properties{"interval_value": 0}, time.UTC)
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = BuildTrigger(models.ScheduleTypeInterval, models.Properties{"interval_value": 1, "interval_unit": "fortnights"}, time.UTC)
	require.Error(t, err)
}

func TestBuildTrigger_Once(t *testing.T) {
	t.Parallel()

	trigger, err := BuildTrigger(models.ScheduleTypeOnce, models.Properties{"run_at": "2026-10-19 08:00:00"}, time.UTC)
	require.NoError(t, err)

	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, at, trigger.Schedule.Next(reference))
	assert.True(t, trigger.Schedule.Next(at).IsZero())

	trigger, err = BuildTrigger(models.ScheduleTypeOnce, models.Properties{"run_at": "2026-10-19T08:00:00+02:00"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, at.Add(-2*time.Hour), trigger.Schedule.Next(reference).UTC())

	_, err = BuildTrigger(models.ScheduleTypeOnce, models.Properties{"run_at": "tomorrow"}, time.UTC)
	require.ErrorIs(t, err, ErrInvalidRunAt)
}

func TestBuildTrigger_Timezone(t *testing.T) {
	t.Parallel()

	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	trigger, err := BuildTrigger(models.ScheduleTypeDaily, models.Properties{
		"hour":     0,
		"timezone": "America/New_York",
	}, time.UTC)
	require.NoError(t, err)

	next := trigger.Schedule.Next(reference)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, newYork).Unix(), next.Unix())

	_, err = BuildTrigger(models.ScheduleTypeDaily, models.Properties{"timezone": "Nowhere/Special"}, time.UTC)
	require.Error(t, err)
}

func TestBuildTrigger_UnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := BuildTrigger("hourly", models.Properties{}, time.UTC)
	require.ErrorIs(t, err, ErrUnsupportedScheduleType)
}
