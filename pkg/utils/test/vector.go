package testutils

import (
	"context"

	"github.com/papercomputeco/scout/pkg/vector"
	"github.com/papercomputeco/scout/pkg/vector/inmemory"
)

// MockVectorDriver is an in-memory vector driver with injectable failures.
type MockVectorDriver struct {
	*inmemory.Driver

	// AddErr and QueryErr are returned from Add and Query when set
	AddErr   error
	QueryErr error
	CountErr error

	// Queries counts Query calls
	Queries int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Driver: inmemory.NewDriver(),
	}
}

func (m *MockVectorDriver) Add(ctx context.Context, docs []vector.Document) (int, error) {
	if m.AddErr != nil {
		return 0, m.AddErr
	}
	return m.Driver.Add(ctx, docs)
}

func (m *MockVectorDriver) Query(ctx context.Context, embeddings [][]float32, topK int) ([][]vector.QueryResult, error) {
	m.Queries++
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.Driver.Query(ctx, embeddings, topK)
}

func (m *MockVectorDriver) Count(ctx context.Context) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return m.Driver.Count(ctx)
}

var _ vector.Driver = (*MockVectorDriver)(nil)
