package studio

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlot(t *testing.T) {
	for _, name := range []string{"bride", "groom", "scene", "pose", "bride_outfit", "groom_outfit"} {
		slot, err := ParseSlot(name)
		require.NoError(t, err, name)
		assert.Equal(t, Slot(name), slot)
	}

	_, err := ParseSlot("venue")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.True(t, SlotBride.IsSubject())
	assert.False(t, SlotScene.IsSubject())
}

func TestUpload_SubjectsAreCapped(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < MaxSubjectImages-2; i++ {
		_, err := f.studio.Upload(SlotBride, testImage(fmt.Sprintf("b%d", i)))
		require.NoError(t, err)
	}

	v, err := f.studio.Upload(SlotBride, testImage("x"), testImage("y"), testImage("z"))
	require.NoError(t, err)
	require.Len(t, v.BrideImages, MaxSubjectImages)
	assert.Equal(t, testImage("y"), v.BrideImages[MaxSubjectImages-1])

	v, err = f.studio.Upload(SlotBride, testImage("overflow"))
	require.NoError(t, err)
	assert.Len(t, v.BrideImages, MaxSubjectImages)
}

func TestUpload_ReferenceKeepsLast(t *testing.T) {
	f := newFixture(t)

	v, err := f.studio.Upload(SlotScene, testImage("first"), testImage("second"))
	require.NoError(t, err)
	require.NotNil(t, v.SceneRef)
	assert.Equal(t, testImage("second"), *v.SceneRef)

	v, err = f.studio.Upload(SlotGroomOutfit, testImage("suit"))
	require.NoError(t, err)
	assert.Equal(t, testImage("suit"), *v.GroomOutfitRef)
	assert.Nil(t, v.BrideOutfitRef)
}

func TestUpload_NothingToAdd(t *testing.T) {
	f := newFixture(t)

	v, err := f.studio.Upload(SlotBride)
	require.NoError(t, err)
	assert.Empty(t, v.BrideImages)
}

func TestClearSlot(t *testing.T) {
	f := newFixture(t)
	f.uploadSubjects(t)
	_, err := f.studio.Upload(SlotPose, testImage("pose"))
	require.NoError(t, err)

	v, err := f.studio.ClearSlot(SlotBride)
	require.NoError(t, err)
	assert.Empty(t, v.BrideImages)
	assert.Len(t, v.GroomImages, 1)

	v, err = f.studio.ClearSlot(SlotPose)
	require.NoError(t, err)
	assert.Nil(t, v.PoseRef)
}

func TestRemoveSubjectImage(t *testing.T) {
	f := newFixture(t)
	_, err := f.studio.Upload(SlotGroom, testImage("g0"), testImage("g1"), testImage("g2"))
	require.NoError(t, err)
	before := f.studio.Snapshot().GroomImages

	v, err := f.studio.RemoveSubjectImage(SlotGroom, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"g0", "g2"}, []string{string(v.GroomImages[0].Data), string(v.GroomImages[1].Data)})
	assert.Len(t, before, 3, "previous snapshot is untouched")

	_, err = f.studio.RemoveSubjectImage(SlotGroom, 5)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.studio.RemoveSubjectImage(SlotScene, 0)
	assert.ErrorAs(t, err, &verr)
}
