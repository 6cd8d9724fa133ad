package image

import (
	"fmt"
	"strings"

	"server/internal/domain"
)

// genericInstruction is the fallback for a style id outside the catalog.
// Styles are validated against the catalog before a request reaches this
// package, so this branch is unreachable in correct operation.
const genericInstruction = "as a cute plushie toy"

func styleInstruction(styleID string) string {
	if s, ok := domain.StyleByID(styleID); ok {
		return s.Instruction
	}
	return genericInstruction
}

// BuildPrompt assembles the full provider instruction from the style table
// and the optional user hint.
func BuildPrompt(req SynthesizeRequest) string {
	userPrompt := ""
	if strings.TrimSpace(req.Prompt) != "" {
		userPrompt = " " + strings.TrimSpace(req.Prompt)
	}

	return fmt.Sprintf(`Transform this image into a professional product photo of a plushie toy. Create a %s plushie version %s.%s

The plushie should be:
- Photographed on a clean, neutral background
- Well-lit with soft, professional lighting
- Centered in the frame
- Showing the plushie's texture and details clearly
- Looking like a real, purchasable plushie product

Style: High-quality product photography, studio lighting, sharp focus, professional composition.`,
		req.Style, styleInstruction(req.Style), userPrompt)
}
