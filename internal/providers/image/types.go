package image

import "context"

// SynthesizeRequest describes one styled rendering of a source image.
type SynthesizeRequest struct {
	SourceURL string
	Style     string
	Prompt    string
	RequestID string
}

// Result carries the synthesized image. Data holds the downloaded bytes;
// ProviderURL is the provider's transient URL they came from.
type Result struct {
	Data        []byte
	ContentType string
	ProviderURL string
}

// Generator is the contract implemented by image synthesis providers. Errors
// are always *domain.SynthesisError so callers can classify failures
// uniformly.
type Generator interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) (*Result, error)
}
