package gemini

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseSchema     *schema  `json:"responseSchema,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Items      *schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// EditInstruction pairs an English image-generation prompt with the
// localized change descriptions shown to the user.
type EditInstruction struct {
	Prompt  string   `json:"prompt"`
	Changes []string `json:"changes"`
}

// VisagismAnalysis is the structured-analysis contract enforced on the
// collaborator's response.
type VisagismAnalysis struct {
	Summary             string            `json:"summary"`
	Recommendations     []string          `json:"recommendations"`
	ImageEditingPrompts []EditInstruction `json:"imageEditingPrompts"`
}

var analysisSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"summary": {Type: "STRING"},
		"recommendations": {
			Type:  "ARRAY",
			Items: &schema{Type: "STRING"},
		},
		"imageEditingPrompts": {
			Type: "ARRAY",
			Items: &schema{
				Type: "OBJECT",
				Properties: map[string]*schema{
					"prompt": {Type: "STRING"},
					"changes": {
						Type:  "ARRAY",
						Items: &schema{Type: "STRING"},
					},
				},
				Required: []string{"prompt", "changes"},
			},
		},
	},
	Required: []string{"summary", "recommendations", "imageEditingPrompts"},
}
