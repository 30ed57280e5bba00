package observability

import "strings"

// Pricing per generated image in USD. Text suggestions are billed per token
// and are cheap enough to be ignored here.
const (
	proImage2KPrice   = 0.134
	proImage1KPrice   = 0.134
	flashImagePrice   = 0.039
	unknownImagePrice = 0.0
)

// ImagePricing holds the per-image price of a model at each output size.
type ImagePricing struct {
	HighQuality float64
	Standard    float64
}

// PricingTable lists the image models the studio can be configured with.
var PricingTable = map[string]ImagePricing{
	"gemini-3-pro-image-preview": {
		HighQuality: proImage2KPrice,
		Standard:    proImage1KPrice,
	},
	"gemini-2.5-flash-image": {
		HighQuality: flashImagePrice,
		Standard:    flashImagePrice,
	},
}

// CalculateImageCost estimates the cost of one generated image.
func CalculateImageCost(modelName string, highQuality bool) float64 {
	pricing, ok := PricingTable[modelName]
	if !ok {
		// tolerate dated snapshots such as "gemini-2.5-flash-image-001"
		for name, p := range PricingTable {
			if strings.HasPrefix(modelName, name) {
				pricing, ok = p, true
				break
			}
		}
	}
	if !ok {
		return unknownImagePrice
	}
	if highQuality {
		return pricing.HighQuality
	}
	return pricing.Standard
}
