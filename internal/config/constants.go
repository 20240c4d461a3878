package config

// Agent identity
const (
	AgentName = "BasicAgent"

	// DefaultSystemPrompt is sent with every query to set the assistant persona
	DefaultSystemPrompt = "You are a helpful AI assistant. Respond concisely and accurately."
)

// Generation limits
const (
	DefaultMaxTokens int64 = 1024
	PreviewLength          = 100
)

// Provider names
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// Log components. Loggers carry these under the "component" key.
const (
	ComponentMain          = "main"
	ComponentAgent         = "agent"
	ComponentLLM           = "llm"
	ComponentHTTPServer    = "http.server"
	ComponentHTTPTransport = "http.transport"
)

// ErrorCompletionFormat renders a vendor failure as completion text when
// LLMConfig.ErrorAsCompletion is set.
const ErrorCompletionFormat = "An error occurred while processing your request: %v"

var providerDefaults = map[string]struct {
	model  string
	envVar string
}{
	ProviderAnthropic: {model: "claude-3-opus-20240229", envVar: "ANTHROPIC_API_KEY"},
	ProviderOpenAI:    {model: "gpt-4o", envVar: "OPENAI_API_KEY"},
	ProviderGemini:    {model: "gemini-2.0-flash", envVar: "GEMINI_API_KEY"},
}

// IsSupportedProvider reports whether name is a known provider
func IsSupportedProvider(name string) bool {
	_, ok := providerDefaults[name]
	return ok
}

// DefaultModel returns the default model for a provider, or "" if unknown
func DefaultModel(provider string) string {
	return providerDefaults[provider].model
}

// APIKeyEnvVar returns the vendor specific API key variable for a provider
func APIKeyEnvVar(provider string) string {
	return providerDefaults[provider].envVar
}
