package notification

import (
	"context"
	"fmt"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/protocol"
	"github.com/fieldflow/orchestrator/pkg/template"
)

// Execute renders the message and sends it on the channel implied by the
// node type.
func (e *Executor) Execute(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	if e.notifications == nil {
		return models.Fail("notification service is not configured"), nil
	}

	props := node.Properties

	recipients := props.Strings("recipients")
	for i, r := range recipients {
		recipients[i] = template.Render(r, execCtx)
	}

	msg := protocol.Message{
		Channel:    e.channel(props),
		Recipients: recipients,
		Subject:    template.Render(props.String("subject", props.String("title", "")), execCtx),
		Content:    template.Render(props.String("content", props.String("message", "")), execCtx),
		Data:       template.RenderMap(props.Map("data"), execCtx),
	}

	var err error

	switch e.nodeType {
	case models.NodeTypeEmail:
		if len(msg.Recipients) == 0 {
			return models.Fail("email requires at least one recipient"), nil
		}

		err = e.notifications.SendEmail(ctx, msg)
	case models.NodeTypeSMS:
		if len(msg.Recipients) == 0 {
			return models.Fail("sms requires at least one recipient"), nil
		}

		err = e.notifications.SendSMS(ctx, msg)
	default:
		err = e.notifications.Send(ctx, msg)
	}

	if err != nil {
		return models.Fail(fmt.Sprintf("send %s: %v", msg.Channel, err)), nil
	}

	return models.Succeed(map[string]any{
		"notification_sent": true,
		"channel":           msg.Channel,
		"recipient_count":   len(msg.Recipients),
	}), nil
}

func (e *Executor) channel(props models.Properties) string {
	switch e.nodeType {
	case models.NodeTypeEmail:
		return "email"
	case models.NodeTypeSMS:
		return "sms"
	default:
		return props.String("channel", "system")
	}
}
