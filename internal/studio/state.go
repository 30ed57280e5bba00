// Package studio holds the per-browser wedding studio: its view state and the
// generation, batch, retouch, album and session operations that drive it.
package studio

import (
	"encoding/json"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/models"
)

// Tab is the active panel of the studio.
type Tab string

const (
	TabGeneration Tab = "generation"
	TabColor      Tab = "color"
	TabAlbum      Tab = "album"
)

// Adjustment bounds for brightness, contrast and saturation.
const (
	AdjustmentMin     = 50
	AdjustmentMax     = 150
	AdjustmentDefault = 100

	LightingMin     = 0
	LightingMax     = 100
	LightingDefault = 50
)

// StatusKind tells the UI how to render a status line.
type StatusKind string

const (
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the single user-visible message of a studio. Success statuses
// auto-dismiss; error statuses stay until dismissed or replaced.
type Status struct {
	Seq     uint64     `json:"seq"`
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
}

// UserSession is the signed-in identity.
type UserSession struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// ViewState is the whole studio as the browser sees it. Values are treated
// as immutable snapshots: slices and images are replaced, never edited.
type ViewState struct {
	BrideImages []imagecodec.Image `json:"bride_images"`
	GroomImages []imagecodec.Image `json:"groom_images"`

	SceneRef       *imagecodec.Image `json:"scene_ref,omitempty"`
	PoseRef        *imagecodec.Image `json:"pose_ref,omitempty"`
	BrideOutfitRef *imagecodec.Image `json:"bride_outfit_ref,omitempty"`
	GroomOutfitRef *imagecodec.Image `json:"groom_outfit_ref,omitempty"`

	Result       *imagecodec.Image  `json:"result,omitempty"`
	Original     *imagecodec.Image  `json:"original,omitempty"`
	BatchResults []imagecodec.Image `json:"batch_results"`

	Scene      string `json:"scene"`
	Pose       string `json:"pose"`
	Outfit     string `json:"outfit"`
	Filter     string `json:"filter"`
	CustomPose string `json:"custom_pose"`
	Lighting   int    `json:"lighting"`

	HighQuality       bool   `json:"high_quality"`
	IsGenerating      bool   `json:"is_generating"`
	IsBatchGenerating bool   `json:"is_batch_generating"`
	BatchProgress     int    `json:"batch_progress"`
	ActiveBatch       string `json:"active_batch,omitempty"`

	Brightness int `json:"brightness"`
	Contrast   int `json:"contrast"`
	Saturation int `json:"saturation"`

	ActiveTab     Tab               `json:"active_tab"`
	CustomRetouch string            `json:"custom_retouch"`
	ShowEditModal bool              `json:"show_edit_modal"`
	Hovered       *imagecodec.Image `json:"hovered,omitempty"`

	Credential      string `json:"-"`
	NeedsCredential bool   `json:"needs_credential"`

	User               *UserSession        `json:"user,omitempty"`
	Photos             []models.SavedPhoto `json:"photos"`
	RetouchSuggestions []string            `json:"retouch_suggestions"`
	Status             *Status             `json:"status,omitempty"`
}

// MarshalJSON hides the credential but reports whether one is present.
func (v ViewState) MarshalJSON() ([]byte, error) {
	type view ViewState
	return json.Marshal(struct {
		view
		HasCredential bool `json:"has_credential"`
	}{view(v), v.Credential != ""})
}

// SelectedPose is the pose used for single-shot generation.
func (v ViewState) SelectedPose() string {
	if v.CustomPose != "" {
		return v.CustomPose
	}
	return v.Pose
}

// Busy reports whether any generation is running.
func (v ViewState) Busy() bool {
	return v.IsGenerating || v.IsBatchGenerating
}

// DefaultViewState is the state of a fresh studio.
func DefaultViewState() ViewState {
	return ViewState{
		Scene:       Scenes[0].Description,
		Pose:        Poses[0].Prompt,
		CustomPose:  Poses[0].Prompt,
		Outfit:      Outfits[0].Description,
		Filter:      Filters[0].Prompt,
		Lighting:    LightingDefault,
		HighQuality: true,
		Brightness:  AdjustmentDefault,
		Contrast:    AdjustmentDefault,
		Saturation:  AdjustmentDefault,
		ActiveTab:   TabGeneration,
	}
}

// Field is an optional patch value. The zero value leaves the target alone.
type Field[T any] struct {
	Value T
	Set   bool
}

// Set returns a field that overwrites its target with v.
func Set[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

func (f Field[T]) apply(dst *T) {
	if f.Set {
		*dst = f.Value
	}
}

// Patch is a partial change to ViewState.
type Patch struct {
	BrideImages Field[[]imagecodec.Image]
	GroomImages Field[[]imagecodec.Image]

	SceneRef       Field[*imagecodec.Image]
	PoseRef        Field[*imagecodec.Image]
	BrideOutfitRef Field[*imagecodec.Image]
	GroomOutfitRef Field[*imagecodec.Image]

	Result       Field[*imagecodec.Image]
	Original     Field[*imagecodec.Image]
	BatchResults Field[[]imagecodec.Image]

	Scene      Field[string]
	Pose       Field[string]
	Outfit     Field[string]
	Filter     Field[string]
	CustomPose Field[string]
	Lighting   Field[int]

	HighQuality       Field[bool]
	IsGenerating      Field[bool]
	IsBatchGenerating Field[bool]
	BatchProgress     Field[int]
	ActiveBatch       Field[string]

	Brightness Field[int]
	Contrast   Field[int]
	Saturation Field[int]

	ActiveTab     Field[Tab]
	CustomRetouch Field[string]
	ShowEditModal Field[bool]

	Credential      Field[string]
	NeedsCredential Field[bool]

	User               Field[*UserSession]
	Photos             Field[[]models.SavedPhoto]
	RetouchSuggestions Field[[]string]
	Status             Field[*Status]
}

// Reduce merges p into v and clears the hover preview. It never mutates v.
func Reduce(v ViewState, p Patch) ViewState {
	p.BrideImages.apply(&v.BrideImages)
	p.GroomImages.apply(&v.GroomImages)

	p.SceneRef.apply(&v.SceneRef)
	p.PoseRef.apply(&v.PoseRef)
	p.BrideOutfitRef.apply(&v.BrideOutfitRef)
	p.GroomOutfitRef.apply(&v.GroomOutfitRef)

	p.Result.apply(&v.Result)
	p.Original.apply(&v.Original)
	p.BatchResults.apply(&v.BatchResults)

	p.Scene.apply(&v.Scene)
	p.Pose.apply(&v.Pose)
	p.Outfit.apply(&v.Outfit)
	p.Filter.apply(&v.Filter)
	p.CustomPose.apply(&v.CustomPose)
	p.Lighting.apply(&v.Lighting)

	p.HighQuality.apply(&v.HighQuality)
	p.IsGenerating.apply(&v.IsGenerating)
	p.IsBatchGenerating.apply(&v.IsBatchGenerating)
	p.BatchProgress.apply(&v.BatchProgress)
	p.ActiveBatch.apply(&v.ActiveBatch)

	p.Brightness.apply(&v.Brightness)
	p.Contrast.apply(&v.Contrast)
	p.Saturation.apply(&v.Saturation)

	p.ActiveTab.apply(&v.ActiveTab)
	p.CustomRetouch.apply(&v.CustomRetouch)
	p.ShowEditModal.apply(&v.ShowEditModal)

	p.Credential.apply(&v.Credential)
	p.NeedsCredential.apply(&v.NeedsCredential)

	p.User.apply(&v.User)
	p.Photos.apply(&v.Photos)
	p.RetouchSuggestions.apply(&v.RetouchSuggestions)
	p.Status.apply(&v.Status)

	v.Hovered = nil
	return v
}

// homePatch is the "go home" transition.
func homePatch() Patch {
	return Patch{
		Result:             Set[*imagecodec.Image](nil),
		Original:           Set[*imagecodec.Image](nil),
		BatchResults:       Set[[]imagecodec.Image](nil),
		Brightness:         Set(AdjustmentDefault),
		Contrast:           Set(AdjustmentDefault),
		Saturation:         Set(AdjustmentDefault),
		CustomRetouch:      Set(""),
		ActiveTab:          Set(TabGeneration),
		ShowEditModal:      Set(false),
		RetouchSuggestions: Set[[]string](nil),
		Status:             Set[*Status](nil),
	}
}
