package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"cineqa/internal/fusion"
	"cineqa/internal/indexer"
)

type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVectorStore) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockVectorStore) Delete(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockVectorStore) Upsert(ctx context.Context, records []indexer.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockVectorStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorStore) SearchNearVector(ctx context.Context, vector []float32, limit int) ([]fusion.DocHit, error) {
	args := m.Called(ctx, vector, limit)
	return args.Get(0).([]fusion.DocHit), args.Error(1)
}

func TestEnsureSchemaWithRetry(t *testing.T) {
	t.Run("succeeds first try", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("EnsureSchema", mock.Anything).Return(nil).Once()

		err := EnsureSchemaWithRetry(context.Background(), store, 3, time.Millisecond)

		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("recovers after transient failures", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("EnsureSchema", mock.Anything).Return(errors.New("connection refused")).Twice()
		store.On("EnsureSchema", mock.Anything).Return(nil).Once()

		err := EnsureSchemaWithRetry(context.Background(), store, 3, time.Millisecond)

		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("returns last error when attempts exhausted", func(t *testing.T) {
		store := new(MockVectorStore)
		store.On("EnsureSchema", mock.Anything).Return(errors.New("connection refused")).Times(3)

		err := EnsureSchemaWithRetry(context.Background(), store, 3, time.Millisecond)

		assert.ErrorContains(t, err, "connection refused")
		store.AssertExpectations(t)
	})
}
