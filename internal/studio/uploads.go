package studio

import (
	"fmt"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
)

// MaxSubjectImages caps how many photos are kept per subject.
const MaxSubjectImages = 10

// Slot names an upload target.
type Slot string

const (
	SlotBride       Slot = "bride"
	SlotGroom       Slot = "groom"
	SlotScene       Slot = "scene"
	SlotPose        Slot = "pose"
	SlotBrideOutfit Slot = "bride_outfit"
	SlotGroomOutfit Slot = "groom_outfit"
)

// ParseSlot validates a slot name.
func ParseSlot(name string) (Slot, error) {
	switch slot := Slot(name); slot {
	case SlotBride, SlotGroom, SlotScene, SlotPose, SlotBrideOutfit, SlotGroomOutfit:
		return slot, nil
	}
	return "", &ValidationError{Message: fmt.Sprintf("unknown upload slot %q", name)}
}

// IsSubject reports whether the slot holds a list of identity photos.
func (s Slot) IsSubject() bool {
	return s == SlotBride || s == SlotGroom
}

// Upload stores images in slot. Subject slots append up to
// MaxSubjectImages; reference slots keep only the last image.
func (s *Studio) Upload(slot Slot, imgs ...imagecodec.Image) (ViewState, error) {
	if len(imgs) == 0 {
		return s.store.Snapshot(), nil
	}

	return s.store.Apply(func(v ViewState) (Patch, error) {
		switch slot {
		case SlotBride:
			return Patch{BrideImages: Set(appendCapped(v.BrideImages, imgs))}, nil
		case SlotGroom:
			return Patch{GroomImages: Set(appendCapped(v.GroomImages, imgs))}, nil
		}
		last := imgs[len(imgs)-1]
		return referencePatch(slot, &last)
	})
}

// ClearSlot empties slot.
func (s *Studio) ClearSlot(slot Slot) (ViewState, error) {
	return s.store.Apply(func(ViewState) (Patch, error) {
		switch slot {
		case SlotBride:
			return Patch{BrideImages: Set[[]imagecodec.Image](nil)}, nil
		case SlotGroom:
			return Patch{GroomImages: Set[[]imagecodec.Image](nil)}, nil
		}
		return referencePatch(slot, nil)
	})
}

// RemoveSubjectImage drops one photo from a subject slot.
func (s *Studio) RemoveSubjectImage(slot Slot, index int) (ViewState, error) {
	return s.store.Apply(func(v ViewState) (Patch, error) {
		var current []imagecodec.Image
		switch slot {
		case SlotBride:
			current = v.BrideImages
		case SlotGroom:
			current = v.GroomImages
		default:
			return Patch{}, &ValidationError{Message: fmt.Sprintf("slot %q has no image list", slot)}
		}
		if index < 0 || index >= len(current) {
			return Patch{}, &ValidationError{Message: fmt.Sprintf("no image at index %d", index)}
		}

		next := make([]imagecodec.Image, 0, len(current)-1)
		next = append(next, current[:index]...)
		next = append(next, current[index+1:]...)
		if slot == SlotBride {
			return Patch{BrideImages: Set(next)}, nil
		}
		return Patch{GroomImages: Set(next)}, nil
	})
}

func referencePatch(slot Slot, img *imagecodec.Image) (Patch, error) {
	switch slot {
	case SlotScene:
		return Patch{SceneRef: Set(img)}, nil
	case SlotPose:
		return Patch{PoseRef: Set(img)}, nil
	case SlotBrideOutfit:
		return Patch{BrideOutfitRef: Set(img)}, nil
	case SlotGroomOutfit:
		return Patch{GroomOutfitRef: Set(img)}, nil
	}
	return Patch{}, &ValidationError{Message: fmt.Sprintf("unknown upload slot %q", slot)}
}

// appendCapped returns a new slice; current is never modified.
func appendCapped(current, added []imagecodec.Image) []imagecodec.Image {
	room := MaxSubjectImages - len(current)
	if room <= 0 {
		return current
	}
	if len(added) > room {
		added = added[:room]
	}
	next := make([]imagecodec.Image, 0, len(current)+len(added))
	next = append(next, current...)
	return append(next, added...)
}
