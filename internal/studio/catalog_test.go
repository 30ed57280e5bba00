package studio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog(t *testing.T) {
	c := FullCatalog()

	assert.Len(t, c.BatchPoses, BatchSize)
	assert.Equal(t, 5, BatchSize)
	assert.Len(t, c.QuickRetouch, 4)
	assert.Len(t, c.FaceRetouch, 4)

	ids := map[string]bool{}
	for _, s := range c.Scenes {
		assert.False(t, ids[s.ID], "duplicate scene %s", s.ID)
		ids[s.ID] = true
	}

	scene, ok := SceneByID("cathedral")
	assert.True(t, ok)
	assert.Contains(t, scene.Description, "gothic cathedral")
	_, ok = SceneByID("moon")
	assert.False(t, ok)

	_, ok = OutfitByID("hanbok")
	assert.True(t, ok)
	pose, ok := PoseByID("forehead")
	assert.True(t, ok)
	assert.Contains(t, pose.Prompt, "foreheads")
	_, ok = FilterByID("film-gold")
	assert.True(t, ok)
}
