package model

// Engine identifies the third-party tool that produced a violation list.
type Engine string

const (
	EngineAxe        Engine = "axe-core"
	EngineLighthouse Engine = "lighthouse"
)

// Violation is one finding reported by an external engine.
// Engine findings are merged at the report layer only.
type Violation struct {
	// ID is the engine's rule or audit id.
	ID string `json:"id"`
	// Impact is the engine's impact label (critical, serious, ...).
	Impact string `json:"impact,omitempty"`
	// Description is the engine's description of the rule.
	Description string `json:"description"`
	// HelpURL links to the engine documentation for the rule.
	HelpURL string `json:"help_url,omitempty"`
	// Nodes is the number of offending nodes the engine reported.
	Nodes int `json:"nodes,omitempty"`
}

// EngineResult is the violation list of one engine for one page.
type EngineResult struct {
	// Source is the page URL or local file path.
	Source string `json:"url"`
	// Engine names the producing tool.
	Engine Engine `json:"engine"`
	// Violations found on the page.
	Violations []Violation `json:"violations"`
	// Error is the engine's own failure message, if any.
	Error string `json:"error,omitempty"`
}
