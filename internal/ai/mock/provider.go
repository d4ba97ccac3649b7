package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/kiranshivaraju/hypecycle/internal/ai"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

const defaultAnalysis = `{"phase": "peak", "confidence": 0.8, "reasoning": "Mock analysis for testing"}`

// MockProvider satisfies models.LLMProvider for testing.
type MockProvider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (string, error)

	mu    sync.Mutex
	calls []models.CompletionRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// Calls returns a copy of every request received so far.
func (m *MockProvider) Calls() []models.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CompletionRequest(nil), m.calls...)
}

// CallCount returns the number of requests received so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// NewMockProvider returns a MockProvider that answers every prompt with a
// valid "peak" analysis.
func NewMockProvider() *MockProvider {
	return NewStaticProvider(defaultAnalysis)
}

// NewStaticProvider returns a MockProvider that always answers with content.
func NewStaticProvider(content string) *MockProvider {
	return &MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return content, nil
		},
	}
}

// NewRoutedProvider answers with the first route whose key appears in the
// prompt, falling back to a valid analysis when none match.
func NewRoutedProvider(routes map[string]string) *MockProvider {
	return &MockProvider{
		Name_: "mock-routed",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			for needle, content := range routes {
				if strings.Contains(req.Prompt, needle) {
					return content, nil
				}
			}
			return defaultAnalysis, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements LLMProvider.
var _ models.LLMProvider = (*MockProvider)(nil)
