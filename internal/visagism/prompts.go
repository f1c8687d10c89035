package visagism

import (
	"fmt"
	"math/rand"

	"github.com/Slydexx/esthetica-app/internal/media"
)

// EnhancementSources maps each of the four enhancement variants onto its
// source photo slot: the two front variants share the front photo, the two
// profile variants come from the respective profile photos.
var EnhancementSources = [4]int{
	media.SlotFront,
	media.SlotFront,
	media.SlotRightProfile,
	media.SlotLeftProfile,
}

// DiagnosticPrompt asks for an annotated overlay only; the face itself must
// stay untouched.
const DiagnosticPrompt = `
Act as a visagism instructor. Create a 'Diagnostic Blueprint' of this face.
DO NOT BEAUTIFY THE FACE. Keep the original face exactly as is.
OVERLAY technical white and red lines on the face to show the analysis:
1. Draw horizontal lines dividing the face into thirds.
2. Draw a line outlining the face shape.
3. Use red dotted lines to mark areas of asymmetry.
Style: Medical aesthetic diagram.
`

const negativePrompt = "cartoon, caricature, blurry, distorted, ugly, messy, asymmetrical, weird hair, deformed eyes"

func styleModifier(index int) string {
	switch index {
	case 0:
		return "Harmonious Visagism Makeover. Elegant, natural, balanced features. Soft professional lighting. High-end salon result."
	case 1:
		return "Celebrity Makeover Portrait. Confident, stylish. Studio lighting. Perfect hair texture. No extreme distortions."
	default:
		return "Sharp defined profile. Professional grooming. Clear jawline definition. Realistic hair texture side view."
	}
}

// EnhancementPrompt wraps an English edit instruction with the positional
// style modifier, the guardrail clauses, and the identity-preservation
// instruction.
func EnhancementPrompt(basePrompt string, index int) string {
	return fmt.Sprintf(`
Makeover Instruction: %s.
Style: %s
8k resolution, photorealistic, cinematic lighting, highly detailed skin texture.
Negative prompt: %s.
Maintain facial identity but apply the styling changes precisely.
`, basePrompt, styleModifier(index), negativePrompt)
}

// VariationPrompt appends a randomized variant tag so repeated regenerations
// of the same slot are not byte-identical requests.
func VariationPrompt(basePrompt string) string {
	return fmt.Sprintf("%s. Create a slightly different variation of this style. Variant %d.", basePrompt, rand.Intn(1000))
}
