package mock

import (
	"context"
	"fmt"
	"sync"
)

// MockTagger is a test double for ai.Tagger.
type MockTagger struct {
	// TagClustersFunc is called by TagClusters if set.
	TagClustersFunc func(ctx context.Context, productDescription string, summaries map[int]map[string]string) (map[int][]string, error)

	mu        sync.Mutex
	callCount int
	lastInput map[int]map[string]string
}

// NewMockTagger creates a mock tagger with default behavior.
func NewMockTagger() *MockTagger {
	return &MockTagger{}
}

// WithTagClustersFunc injects custom TagClusters behavior.
func (m *MockTagger) WithTagClustersFunc(fn func(ctx context.Context, productDescription string, summaries map[int]map[string]string) (map[int][]string, error)) *MockTagger {
	m.TagClustersFunc = fn
	return m
}

// TagClusters returns one tag per summary field, "cluster <id> <field>".
func (m *MockTagger) TagClusters(ctx context.Context, productDescription string, summaries map[int]map[string]string) (map[int][]string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastInput = summaries
	fn := m.TagClustersFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, productDescription, summaries)
	}

	out := make(map[int][]string, len(summaries))
	for id, summary := range summaries {
		tags := make([]string, 0, len(summary))
		for field := range summary {
			tags = append(tags, fmt.Sprintf("cluster %d %s", id, field))
		}
		out[id] = tags
	}
	return out, nil
}

// CallCount returns the number of times TagClusters was called.
func (m *MockTagger) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastSummaries returns the summaries passed to the most recent call.
func (m *MockTagger) LastSummaries() map[int]map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastInput
}

// MockRewriter is a test double for ai.Rewriter.
// By default it returns the description unchanged.
type MockRewriter struct {
	RewriteQueryFunc func(ctx context.Context, productDescription string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockRewriter creates a pass-through mock rewriter.
func NewMockRewriter() *MockRewriter {
	return &MockRewriter{}
}

// RewriteQuery returns the description unchanged unless RewriteQueryFunc is set.
func (m *MockRewriter) RewriteQuery(ctx context.Context, productDescription string) (string, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.RewriteQueryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, productDescription)
	}
	return productDescription, nil
}

// CallCount returns the number of times RewriteQuery was called.
func (m *MockRewriter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
