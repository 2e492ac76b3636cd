// Package aitest provides a scripted ai.GraphAIClient for tests.
package aitest

import (
	"context"
	"errors"
	"sync"

	"github.com/deepgraph/backend/pkg/ai"
)

// Reply produces the raw model output for a prompt.
type Reply func(prompt string) (string, error)

// Call records one request made against the mock.
type Call struct {
	Name   string
	Prompt string
}

// MockGraphAIClient answers structured requests by schema name and free-form
// requests with Completion. Unscripted requests fail with ai.ErrCall.
// It is safe for concurrent use.
type MockGraphAIClient struct {
	ai.MetricsRecorder

	Completion Reply
	Structured map[string]Reply

	mu    sync.Mutex
	calls []Call
}

var errUnscripted = errors.New("no scripted reply")

// Fixed returns a Reply that always answers with response.
func Fixed(response string) Reply {
	return func(string) (string, error) {
		return response, nil
	}
}

// Failing returns a Reply that always fails with err.
func Failing(err error) Reply {
	return func(string) (string, error) {
		return "", err
	}
}

func (m *MockGraphAIClient) record(name, prompt string) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Name: name, Prompt: prompt})
	m.mu.Unlock()
	m.Record(ai.ModelMetrics{})
}

// Calls returns a copy of every recorded call.
func (m *MockGraphAIClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many calls were made for name. The empty name counts
// free-form completions.
func (m *MockGraphAIClient) CallCount(name string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Name == name {
			n++
		}
	}
	return n
}

func (m *MockGraphAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	m.record("", prompt)
	if err := ctx.Err(); err != nil {
		return "", ai.CallError(err)
	}
	if m.Completion == nil {
		return "", ai.CallError(errUnscripted)
	}
	out, err := m.Completion(prompt)
	if err != nil {
		return "", ai.CallError(err)
	}
	return out, nil
}

func (m *MockGraphAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	m.record(name, prompt)
	if err := ctx.Err(); err != nil {
		return ai.CallError(err)
	}
	reply, ok := m.Structured[name]
	if !ok {
		return ai.CallError(errUnscripted)
	}
	raw, err := reply(prompt)
	if err != nil {
		return ai.CallError(err)
	}
	if err := ai.UnmarshalFlexible(raw, out); err != nil {
		return ai.SchemaError(err)
	}
	return nil
}
