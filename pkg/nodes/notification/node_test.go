package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/orchestrator/pkg/mocks"
	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

func TestEmailExecutor(t *testing.T) {
	notifications := &mocks.MockNotificationService{}
	notifications.On("SendEmail", mock.Anything, protocol.Message{
		Channel:    "email",
		Recipients: []string{"ops@example.com", "lead@example.com"},
		Subject:    "Pump P1 alarm",
		Content:    "Pressure is 4.2",
	}).Return(nil)

	node := &models.Node{
		ID:   "mail",
		Type: models.NodeTypeEmail,
		Properties: models.Properties{
			"recipients": "ops@example.com, ${lead}",
			"subject":    "Pump ${pump} alarm",
			"content":    "Pressure is ${pressure}",
		},
	}

	result, err := NewExecutor(models.NodeTypeEmail, notifications).Execute(context.Background(), node, models.ExecutionContext{
		"lead":     "lead@example.com",
		"pump":     "P1",
		"pressure": 4.2,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Output["recipient_count"])
	notifications.AssertExpectations(t)
}

func TestSMSExecutor_RequiresRecipients(t *testing.T) {
	node := &models.Node{ID: "sms", Type: models.NodeTypeSMS, Properties: models.Properties{"content": "hi"}}

	result, err := NewExecutor(models.NodeTypeSMS, &mocks.MockNotificationService{}).Execute(context.Background(), node, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "recipient")
}

func TestNotificationExecutor_GenericChannel(t *testing.T) {
	notifications := &mocks.MockNotificationService{}
	notifications.On("Send", mock.Anything, mock.MatchedBy(func(msg protocol.Message) bool {
		return msg.Channel == "wechat" && msg.Content == "done"
	})).Return(errors.New("channel down"))

	node := &models.Node{
		ID:         "notify",
		Type:       models.NodeTypeNotification,
		Properties: models.Properties{"channel": "wechat", "message": "done"},
	}

	result, err := NewExecutor(models.NodeTypeNotification, notifications).Execute(context.Background(), node, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "channel down")
}

func TestNotificationExecutor_NotConfigured(t *testing.T) {
	node := &models.Node{ID: "notify", Type: models.NodeTypeNotification}

	result, err := NewExecutor(models.NodeTypeNotification, nil).Execute(context.Background(), node, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
}
