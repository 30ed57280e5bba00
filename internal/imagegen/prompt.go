package imagegen

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxRetouchSuggestions bounds the suggestion list shown in the editor.
	MaxRetouchSuggestions = 4

	defaultOutfit = "Standard elegant wedding attire"
	fallbackPose  = "standing side by side"

	softLightingBelow   = 30
	studioLightingBelow = 70
)

// FallbackRetouchSuggestions is used when the model answers with nothing usable.
var FallbackRetouchSuggestions = []string{
	"Brighten the exposure",
	"Even out skin tone",
	"Sharpen details",
	"Warm up the atmosphere",
}

// LightingDescription maps the 0..100 lighting slider onto a phrase.
func LightingDescription(level int) string {
	switch {
	case level < softLightingBelow:
		return "soft ambient lighting"
	case level < studioLightingBelow:
		return "professional studio lighting"
	default:
		return "dramatic high-contrast lighting"
	}
}

func buildGeneratePrompt(req Request) string {
	outfit := strings.TrimSpace(req.Outfit)
	if outfit == "" {
		outfit = defaultOutfit
	}

	var b strings.Builder
	b.WriteString("[PRO STUDIO DIRECTOR: HIGH FIDELITY MODE]\n")
	b.WriteString("CORE MANDATE: Generate a masterpiece wedding photo with absolute consistency.\n\n")
	b.WriteString("1. FACES (IDENTITIES): REPLICATE the exact facial features of the bride and groom from the provided face references.\n")
	fmt.Fprintf(&b, "2. OUTFIT (CLOTHING STYLE):\n   - PRIMARY INSTRUCTION: %s\n", outfit)
	b.WriteString("   - IF reference clothing images are provided, REPLICATE them exactly.\n")
	b.WriteString("   - DO NOT use default clothing. Use the specified style.\n")
	fmt.Fprintf(&b, "3. ENVIRONMENT (SCENE): %s. Maintain the atmosphere and lighting.\n", req.Scene)
	fmt.Fprintf(&b, "4. ACTION (POSE): %s.\n", req.Pose)
	fmt.Fprintf(&b, "5. PHOTOGRAPHY STYLE: %s, %s.\n", req.Filter, LightingDescription(req.Lighting))
	if req.PriorResult != nil {
		b.WriteString("6. SERIES CONSISTENCY: the last reference image is an earlier photo of this series. Keep faces, outfits and color grading identical to it.\n")
	}
	b.WriteString("\nCRITICAL: 100% face identity match is required. The clothing must perfectly match the chosen \"OUTFIT STYLE\" description. ")
	if req.HighQuality {
		b.WriteString("2K resolution, photorealistic cinematic quality.")
	} else {
		b.WriteString("Photorealistic cinematic quality.")
	}
	return b.String()
}

func buildEditPrompt(instruction string) string {
	return fmt.Sprintf("Edit this photo strictly based on: %q. Keep identities and clothing 100%% same.", instruction)
}

func buildPoseSuggestionPrompt(scene string) string {
	return fmt.Sprintf("Suggest a single romantic wedding pose in %q. English prompt only.", scene)
}

func buildRetouchSuggestionPrompt(scene string) string {
	return fmt.Sprintf("Suggest %d concise professional photo editing commands for a wedding photo taken in %q. One command per line, no numbering.",
		MaxRetouchSuggestions, scene)
}

// parsePoseSuggestion trims the model answer and falls back to a neutral pose.
func parsePoseSuggestion(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallbackPose
	}
	return text
}

// listMarker matches a leading bullet or "1." / "1)" numbering, not digits
// that belong to the command itself.
var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])(?:\s+|$)`)

// parseRetouchSuggestions keeps the first non-empty lines, stripping list markers.
func parseRetouchSuggestions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = listMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == MaxRetouchSuggestions {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), FallbackRetouchSuggestions...)
	}
	return out
}
