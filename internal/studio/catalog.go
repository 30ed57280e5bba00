package studio

// Scene is a selectable wedding location.
type Scene struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// Outfit is a selectable clothing style for the couple.
type Outfit struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// Pose is a selectable pose template.
type Pose struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// Filter is a selectable photography style.
type Filter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

var Scenes = []Scene{
	{
		ID:          "hanok",
		Name:        "Hanok Classic",
		Description: "Traditional Korean Hanok house with wooden architecture, tiled roofs, and elegant paper doors background",
		Thumbnail:   "https://images.unsplash.com/photo-1590664095641-7fa05f689813?q=80&w=800&auto=format&fit=crop",
	},
	{
		ID:          "cathedral",
		Name:        "Grand Cathedral",
		Description: "Grand gothic cathedral interior with stained glass windows, high stone arches, and majestic altar",
		Thumbnail:   "https://images.unsplash.com/photo-1438032005730-c779502df39b?q=80&w=800&auto=format&fit=crop",
	},
	{
		ID:          "hotel",
		Name:        "Luxury Ballroom",
		Description: "Luxury hotel grand ballroom with giant crystal chandeliers and rich floral arrangements",
		Thumbnail:   "https://images.unsplash.com/photo-1519225421980-715cb0215aed?q=80&w=800&auto=format&fit=crop",
	},
	{
		ID:          "forest",
		Name:        "Secret Forest",
		Description: "Sun-drenched mystical forest garden with ancient trees and romantic hanging flowers",
		Thumbnail:   "https://images.unsplash.com/photo-1441974231531-c6227db76b6e?q=80&w=800&auto=format&fit=crop",
	},
}

var Outfits = []Outfit{
	{
		ID:          "royal",
		Name:        "Royal Silk",
		Description: "High-end luxury white silk wedding ballgown for the bride and a sharp classic black tuxedo for the groom.",
		Thumbnail:   "https://images.unsplash.com/photo-1546193430-c2d20e03daf7?q=80&w=800&auto=format&fit=crop",
	},
	{
		ID:          "hanbok",
		Name:        "Royal Hanbok",
		Description: "Traditional Korean Royal Wedding Hanbok. Bride in red Hwarot with gold embroidery, Groom in blue Gwanbok.",
		Thumbnail:   "https://images.unsplash.com/photo-1582234372722-50d7ccc30e5a?q=80&w=800&auto=format&fit=crop",
	},
	{
		ID:          "vintage",
		Name:        "Retro Garden",
		Description: "Vintage bohemian lace dress for the bride and a stylish beige checkered suit for the groom.",
		Thumbnail:   "https://images.unsplash.com/photo-1544078751-58fee2d8a03b?q=80&w=800&auto=format&fit=crop",
	},
	{
		ID:          "modern",
		Name:        "Modern Chic",
		Description: "Minimalist contemporary silk mermaid dress for the bride and a sophisticated slim-fit charcoal suit for the groom.",
		Thumbnail:   "https://images.unsplash.com/photo-1550005809-91ad75fb315f?q=80&w=800&auto=format&fit=crop",
	},
}

var Poses = []Pose{
	{ID: "classic", Name: "Front Classic", Prompt: "The couple is standing side by side, looking directly at the camera with a gentle, loving smile."},
	{ID: "forehead", Name: "Forehead Touch", Prompt: "The couple is touching their foreheads together, eyes closed, creating a deeply romantic and intimate atmosphere."},
	{ID: "lift", Name: "Lift Up", Prompt: "The groom is lifting the bride up in his arms, both showing expressions of pure joy and celebration."},
	{ID: "back", Name: "Back Hug", Prompt: "The groom is hugging the bride warmly from behind, a soft and protective embrace."},
}

var Filters = []Filter{
	{ID: "editorial", Name: "Editorial", Description: "Crisp like a magazine spread", Prompt: "High-end fashion magazine grade, sharp professional focus, balanced studio highlights."},
	{ID: "fineart", Name: "Fine Art", Description: "Soft painterly texture", Prompt: "Painterly texture, soft artistic lighting, museum-quality oil painting finish."},
	{ID: "film-gold", Name: "Film Gold", Description: "Warm vintage analog", Prompt: "Vintage film aesthetic with warm golden skin tones and subtle analog grain."},
}

// BatchPoses are the fixed shots of a signature batch, in order.
var BatchPoses = [...]string{
	"Cinematic wide shot of the couple standing together, grandeur and elegance",
	"Extreme close-up emotional portrait, soft lighting on faces",
	"Low angle shot looking up at the couple from behind, romantic back-view",
	"The groom holding the bride from behind, intimate and warm",
	"A trendy magazine-style profile shot of the couple looking away",
}

// BatchSize is the number of photos a batch produces.
const BatchSize = len(BatchPoses)

var QuickRetouchCommands = []string{
	"Make it sharper",
	"Make it softer",
	"Make it cinematic",
	"Make it warmer",
}

var FaceRetouchCommands = []string{
	"Smooth out skin texture",
	"Make the eyes clearer",
	"Apply a teeth whitening effect",
	"Refine the overall face contour",
}

// Catalog is everything a client needs to render the selection panels.
type Catalog struct {
	Scenes       []Scene  `json:"scenes"`
	Outfits      []Outfit `json:"outfits"`
	Poses        []Pose   `json:"poses"`
	Filters      []Filter `json:"filters"`
	BatchPoses   []string `json:"batch_poses"`
	QuickRetouch []string `json:"quick_retouch"`
	FaceRetouch  []string `json:"face_retouch"`
}

// FullCatalog returns the catalog.
func FullCatalog() Catalog {
	return Catalog{
		Scenes:       Scenes,
		Outfits:      Outfits,
		Poses:        Poses,
		Filters:      Filters,
		BatchPoses:   BatchPoses[:],
		QuickRetouch: QuickRetouchCommands,
		FaceRetouch:  FaceRetouchCommands,
	}
}

func SceneByID(id string) (Scene, bool) {
	for _, s := range Scenes {
		if s.ID == id {
			return s, true
		}
	}
	return Scene{}, false
}

func OutfitByID(id string) (Outfit, bool) {
	for _, o := range Outfits {
		if o.ID == id {
			return o, true
		}
	}
	return Outfit{}, false
}

func PoseByID(id string) (Pose, bool) {
	for _, p := range Poses {
		if p.ID == id {
			return p, true
		}
	}
	return Pose{}, false
}

func FilterByID(id string) (Filter, bool) {
	for _, f := range Filters {
		if f.ID == id {
			return f, true
		}
	}
	return Filter{}, false
}
