package llm

import "fmt"

// Options configures the chat provider built by NewProvider.
type Options struct {
	Model             string
	BaseURL           string
	RequestsPerMinute int
}

// NewProvider creates the OpenAI chat provider, wrapped in a rate limiter
// when RequestsPerMinute is set.
func NewProvider(apiKey string, opts Options) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is empty")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("chat model is required")
	}

	var p Provider = NewOpenAIProvider(apiKey, opts.Model, opts.BaseURL)
	if opts.RequestsPerMinute > 0 {
		p = NewRateLimitedProvider(p, opts.RequestsPerMinute)
	}
	return p, nil
}
