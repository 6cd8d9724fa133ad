package domain

// Style is one entry of the fixed plushie style catalog. Instruction is the
// provider-facing fragment spliced into the synthesis prompt.
type Style struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Instruction string `json:"-"`
}

var Styles = []Style{
	{
		ID:          "cute-fluffy",
		Name:        "Cute & Fluffy",
		Description: "Soft, cuddly plushie with a kawaii aesthetic",
		Instruction: "as an adorable, super fluffy plushie toy with soft texture, round features, and big expressive eyes. The plushie should have a cuddly, huggable appearance with fuzzy fabric texture.",
	},
	{
		ID:          "realistic-plush",
		Name:        "Realistic Plush",
		Description: "Detailed and lifelike plushie representation",
		Instruction: "as a highly detailed, realistic plushie toy with accurate proportions and lifelike features. The plushie should have realistic fabric texture, proper stitching details, and authentic coloring.",
	},
	{
		ID:          "cartoon-style",
		Name:        "Cartoon Style",
		Description: "Fun, animated cartoon-like plushie",
		Instruction: "as a playful cartoon-style plushie toy with exaggerated features, bold colors, and simplified shapes. The plushie should have a fun, animated appearance with smooth surfaces.",
	},
	{
		ID:          "minimalist",
		Name:        "Minimalist",
		Description: "Clean, simple design with minimal details",
		Instruction: "as a minimalist, modern plushie toy with clean lines, simple shapes, and a contemporary aesthetic. The plushie should have a refined, elegant appearance with subtle details.",
	},
}

// StyleByID looks up a catalog entry.
func StyleByID(id string) (Style, bool) {
	for _, s := range Styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

// ValidStyle reports whether id names a catalog entry.
func ValidStyle(id string) bool {
	_, ok := StyleByID(id)
	return ok
}
