package model

// Capabilities describes what a model can be asked to do. Capability flags
// are advisory: the gateway does not reject a request because a capability
// is false, except where the HTTP surface explicitly validates against it.
type Capabilities struct {
	Streaming        bool `json:"streaming" yaml:"streaming"`
	FunctionCalling  bool `json:"function_calling" yaml:"function_calling"`
	Vision           bool `json:"vision" yaml:"vision"`
	JSONMode         bool `json:"json_mode" yaml:"json_mode"`
	Tools            bool `json:"tools" yaml:"tools"`
	ReasoningMode    bool `json:"reasoning_mode" yaml:"reasoning_mode"`
	CodeExecution    bool `json:"code_execution" yaml:"code_execution"`
	MaxContextLength int  `json:"max_context_length" yaml:"max_context_length"`
}

// ModelMetadata carries descriptive, non-functional information about a
// model — the kind of thing a catalog page would show.
type ModelMetadata struct {
	PricingTier      string `json:"pricing_tier" yaml:"pricing_tier"`
	PerformanceClass string `json:"performance_class" yaml:"performance_class"`
	ReleaseDate      string `json:"release_date" yaml:"release_date"`
	ContextWindow    int    `json:"context_window" yaml:"context_window"`
	OutputTokens     int    `json:"output_tokens" yaml:"output_tokens"`
	Description      string `json:"description" yaml:"description"`
}

// ModelDescriptor is one entry in the static model registry. It is
// immutable at runtime: the registry is built once, from embedded YAML, and
// never mutated afterward.
type ModelDescriptor struct {
	ID           string        `json:"id" yaml:"id"`
	Aliases      []string      `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Capabilities Capabilities  `json:"capabilities" yaml:"capabilities"`
	Metadata     ModelMetadata `json:"metadata" yaml:"metadata"`
}
