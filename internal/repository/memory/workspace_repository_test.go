package memory

import (
	"testing"

	"notesnap-gateway/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestWorkspaceRepository(t *testing.T) {
	repo := NewWorkspaceRepository()

	_, found := repo.Get("u1")
	assert.False(t, found)

	ws := &entity.Workspace{Phase: entity.PhaseIdle, Accuracy: entity.AccuracyMedium}
	repo.Save("u1", ws)

	got, found := repo.Get("u1")
	assert.True(t, found)
	assert.Equal(t, entity.PhaseIdle, got.Phase)
	assert.False(t, got.UpdatedAt.IsZero(), "save stamps the workspace")

	// Workspaces are keyed per user
	_, found = repo.Get("u2")
	assert.False(t, found)

	repo.Delete("u1")
	_, found = repo.Get("u1")
	assert.False(t, found)
}
