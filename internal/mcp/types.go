package mcp

import "time"

// ListTestsInput is the input for the list_tests tool.
type ListTestsInput struct {
	Backend string `json:"backend,omitempty" jsonschema:"Backend name used to mark which tests it supports (default: the first configured backend)"`
}

// TestInfo describes one registered conformance test.
type TestInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Flags       []string `json:"flags,omitempty"`
	// Missing lists required flags the backend does not declare.
	Missing   []string `json:"missing,omitempty"`
	Supported bool     `json:"supported"`
}

// ListTestsOutput is the output for the list_tests tool.
type ListTestsOutput struct {
	Backend string     `json:"backend"`
	Tests   []TestInfo `json:"tests"`
}

// RunTestsInput is the input for the run_tests tool.
type RunTestsInput struct {
	Tests   []string `json:"tests,omitempty" jsonschema:"Names of the tests to run in registration order (default: all)"`
	Backend string   `json:"backend,omitempty" jsonschema:"Backend to run against (default: every configured backend)"`
	Timeout int      `json:"timeout,omitempty" jsonschema:"Per-test timeout in seconds (default: the configured run.timeout)"`
}

// TestResult is the outcome of one test on one backend.
type TestResult struct {
	Backend  string   `json:"backend"`
	Test     string   `json:"test"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Messages []string `json:"messages,omitempty"`
	Duration string   `json:"duration"`
	Dir      string   `json:"dir,omitempty"`
}

// RunTestsOutput is the output for the run_tests tool.
type RunTestsOutput struct {
	RunID    string       `json:"run_id"`
	Dir      string       `json:"dir"`
	Started  time.Time    `json:"started"`
	Duration string       `json:"duration"`
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
	Skipped  int          `json:"skipped"`
	Results  []TestResult `json:"results"`
}

// BackendInfoInput is the input for the backend_info tool.
type BackendInfoInput struct {
	Backend string `json:"backend,omitempty" jsonschema:"Backend name (default: every configured backend)"`
}

// BackendInfo describes a backend and the capabilities it declares.
type BackendInfo struct {
	Name  string   `json:"name"`
	Flags []string `json:"flags"`
}

// BackendInfoOutput is the output for the backend_info tool.
type BackendInfoOutput struct {
	Backends []BackendInfo `json:"backends"`
}
