package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDoneStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Done", true},
		{"done", true},
		{"Completed", true},
		{" COMPLETED ", true},
		{"In Progress", false},
		{"Not Started", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDoneStatus(tt.status), tt.status)
	}
}

func TestCanonicalTaskStatus(t *testing.T) {
	got, ok := CanonicalTaskStatus("in progress")
	assert.True(t, ok)
	assert.Equal(t, TaskStatusInProgress, got)

	_, ok = CanonicalTaskStatus("finished")
	assert.False(t, ok)
}

func TestCanonicalPriority(t *testing.T) {
	got, ok := CanonicalPriority("HIGH")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, got)

	_, ok = CanonicalPriority("urgent")
	assert.False(t, ok)
}
