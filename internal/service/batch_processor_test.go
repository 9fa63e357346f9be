package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewTaskBatchProcessor(t *testing.T) {
	t.Run("nil taskRepo", func(t *testing.T) {
		_, err := NewTaskBatchProcessor(nil, testLogger())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "taskRepo")
	})

	t.Run("nil logger uses default", func(t *testing.T) {
		processor, err := NewTaskBatchProcessor(&MockTaskRepository{}, nil)
		assert.NoError(t, err)
		assert.NotNil(t, processor)
	})
}

func TestPauseTasksEmptyBatch(t *testing.T) {
	repo := new(MockTaskRepository)
	processor, err := NewTaskBatchProcessor(repo, testLogger())
	require.NoError(t, err)

	err = processor.PauseTasks(context.Background(), nil)
	assert.NoError(t, err)

	// An empty batch must not open a transaction
	repo.AssertNotCalled(t, "DB")
	repo.AssertNotCalled(t, "UpdateAll", mock.Anything, mock.Anything)
}
