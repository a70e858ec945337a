package httprequest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fieldflow/orchestrator/pkg/models"
	"github.com/fieldflow/orchestrator/pkg/template"
)

const maxResponseBytes = 10 << 20

// Execute renders the request, performs it and stores the response under
// outputVariable. Non-2xx responses fail with the status code in the error.
func (e *Executor) Execute(ctx context.Context, node *models.Node, execCtx models.ExecutionContext) (models.NodeExecutionResult, error) {
	outputVariable := node.Properties.String("outputVariable", node.ID+"_response")

	timeout := DefaultTimeout
	if seconds := node.Properties.Float("timeout", 0); seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := BuildRequest(ctx, node.Properties, execCtx, http.MethodGet)
	if err != nil {
		return models.Fail(err.Error()), nil
	}

	response, err := Do(e.client, req)
	if err != nil {
		return models.Fail(err.Error()), nil
	}

	output := map[string]any{outputVariable: response.AsMap()}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return models.FailWithOutput(output, response.ErrorMessage()), nil
	}

	return models.Succeed(output), nil
}

// Response is the decoded result of an HTTP call.
type Response struct {
	StatusCode int
	Headers    map[string]any
	Body       any
}

func (r Response) AsMap() map[string]any {
	return map[string]any{
		"statusCode": r.StatusCode,
		"headers":    r.Headers,
		"body":       r.Body,
	}
}

func (r Response) ErrorMessage() string {
	body := models.Stringify(r.Body)
	if len(body) > 256 {
		body = body[:256] + "..."
	}

	return fmt.Sprintf("HTTP %d: %s", r.StatusCode, body)
}

// BuildRequest renders url, method, headers, params and body from props.
func BuildRequest(ctx context.Context, props models.Properties, data map[string]any, defaultMethod string) (*http.Request, error) {
	rawURL := template.Render(props.String("url", ""), data)
	if rawURL == "" {
		return nil, fmt.Errorf("missing required property 'url'")
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	if params := props.Map("params"); len(params) > 0 {
		query := target.Query()
		for key, value := range template.RenderStrings(params, data) {
			query.Set(key, value)
		}

		target.RawQuery = query.Encode()
	}

	method := strings.ToUpper(props.String("method", defaultMethod))

	body, contentType, err := encodeBody(props["body"], data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for key, value := range template.RenderStrings(props.Map("headers"), data) {
		req.Header.Set(key, value)
	}

	return req, nil
}

func encodeBody(raw any, data map[string]any) (io.Reader, string, error) {
	switch body := raw.(type) {
	case nil:
		return nil, "", nil
	case string:
		if body == "" {
			return nil, "", nil
		}

		return strings.NewReader(template.Render(body, data)), "application/json", nil
	default:
		payload, err := json.Marshal(template.RenderValue(body, data))
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode body: %w", err)
		}

		return bytes.NewReader(payload), "application/json", nil
	}
}

// Do performs req and decodes the body as JSON when possible.
func Do(client *http.Client, req *http.Request) (Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	headers := make(map[string]any, len(resp.Header))
	for key, values := range resp.Header {
		headers[key] = strings.Join(values, ", ")
	}

	var body any = string(raw)

	var decoded any
	if len(raw) > 0 && json.Unmarshal(raw, &decoded) == nil {
		body = decoded
	}

	return Response{StatusCode: resp.StatusCode, Headers: headers, Body: body}, nil
}
