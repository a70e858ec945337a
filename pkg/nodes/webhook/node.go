package webhook

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/nodes/httprequest"
)

// Execute delivers the webhook. Any status below 400 counts as success.
func (e *Executor) Execute(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	timeout := httprequest.DefaultTimeout
	if seconds := node.Properties.Float("timeout", 0); seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := strings.ToUpper(node.Properties.String("method", http.MethodPost))

	props := models.Properties{
		"url":     node.Properties["url"],
		"method":  method,
		"headers": node.Properties["headers"],
	}

	if method == http.MethodGet {
		props["params"] = node.Properties["payload"]
	} else if payload, ok := node.Properties["payload"]; ok {
		props["body"] = payload
	} else {
		props["body"] = map[string]any{}
	}

	req, err := httprequest.BuildRequest(ctx, props, execCtx, http.MethodPost)
	if err != nil {
		return models.Fail(err.Error()), nil
	}

	response, err := httprequest.Do(e.client, req)
	if err != nil {
		return models.Fail(err.Error()), nil
	}

	output := map[string]any{
		node.Properties.String("outputVariable", "webhook_response"): map[string]any{
			"statusCode": response.StatusCode,
			"body":       response.Body,
		},
	}

	if response.StatusCode >= 400 {
		return models.FailWithOutput(output, response.ErrorMessage()), nil
	}

	return models.Succeed(output), nil
}
