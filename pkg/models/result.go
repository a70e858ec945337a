package models

// NodeExecutionResult is what every executor returns. Branch is only
// meaningful for branching node types.
type NodeExecutionResult struct {
	Success bool           `json:"success"`
	Output  map[string]any `json:"output,omitempty"`
	Error   string         `json:"error,omitempty"`
	Branch  string         `json:"branch,omitempty"`
}

func Succeed(output map[string]any) NodeExecutionResult {
	if output == nil {
		output = map[string]any{}
	}

	return NodeExecutionResult{Success: true, Output: output}
}

func SucceedBranch(output map[string]any, branch string) NodeExecutionResult {
	res := Succeed(output)
	res.Branch = branch

	return res
}

func Fail(message string) NodeExecutionResult {
	return NodeExecutionResult{Success: false, Output: map[string]any{}, Error: message}
}

// FailWithOutput reports a failure while still exposing partial output,
// e.g. the response of a non-2xx HTTP call.
func FailWithOutput(output map[string]any, message string) NodeExecutionResult {
	res := Fail(message)
	if output != nil {
		res.Output = output
	}

	return res
}
