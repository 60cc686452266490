package kg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockGraphStore struct {
	mock.Mock
}

func (m *MockGraphStore) MergeNode(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockGraphStore) MergeEdge(ctx context.Context, subject, predicate, object, documentID string) error {
	args := m.Called(ctx, subject, predicate, object, documentID)
	return args.Error(0)
}

func TestCommitter_NodesBeforeEdge(t *testing.T) {
	store := new(MockGraphStore)
	store.On("MergeNode", mock.Anything, "星际穿越").Return(nil)
	store.On("MergeNode", mock.Anything, "诺兰").Return(nil)
	store.On("MergeEdge", mock.Anything, "星际穿越", "导演", "诺兰", "doc-1").Return(nil)

	c := NewCommitter(store)
	err := c.Commit(context.Background(), []Triple{
		{Subject: "星际穿越", Predicate: "导演", Object: "诺兰", DocumentID: "doc-1"},
	})
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestCommitter_StopsOnStoreError(t *testing.T) {
	store := new(MockGraphStore)
	store.On("MergeNode", mock.Anything, "星际穿越").Return(errors.New("db down"))

	c := NewCommitter(store)
	err := c.Commit(context.Background(), []Triple{
		{Subject: "星际穿越", Predicate: "导演", Object: "诺兰"},
	})
	assert.Error(t, err)
	store.AssertNotCalled(t, "MergeEdge")
}

func TestCommitter_EmptyListNoop(t *testing.T) {
	store := new(MockGraphStore)
	c := NewCommitter(store)
	assert.NoError(t, c.Commit(context.Background(), nil))
	store.AssertNotCalled(t, "MergeNode")
}
