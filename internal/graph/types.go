package graph

// Placeholder call targets that never resolve to a function.
const (
	TargetSubscript = "<subscript>" // Call on a subscript result: handlers[key]()
	TargetChained   = "<chained>"   // Call on a call result: factory()()
)

// CallSite is one call expression inside a function body.
type CallSite struct {
	Target   string `json:"target"`              // Best-effort resolved name ("obj.method" or "func")
	Line     int    `json:"line"`                // 1-indexed
	Column   int    `json:"column"`              // 1-indexed
	IsMethod bool   `json:"is_method,omitempty"` // Reached through attribute access
}

// CallerInfo identifies a call site that targets a function.
type CallerInfo struct {
	Function string `json:"function"` // Qualified name of the calling function
	File     string `json:"file"`
	Line     int    `json:"line"` // Line of the call site
}

// FunctionNode is one function in the call graph.
type FunctionNode struct {
	Name      string       `json:"name"` // Qualified by the innermost enclosing class
	File      string       `json:"file"`
	Line      int          `json:"line"`
	EndLine   int          `json:"end_line"`
	CallSites []CallSite   `json:"call_sites,omitempty"`
	CalledBy  []CallerInfo `json:"called_by,omitempty"`
	IsTest    bool         `json:"is_test,omitempty"` // Informational; tests stay first-class nodes
}

// ImpactReport describes who is affected by a change to one function.
type ImpactReport struct {
	Function          string       `json:"function"`
	File              string       `json:"file"`
	DirectCallers     []CallerInfo `json:"direct_callers,omitempty"`
	TransitiveCallers []string     `json:"transitive_callers,omitempty"` // Every caller reachable through any number of calls
	AffectedTests     []string     `json:"affected_tests,omitempty"`
}

// ImpactAnalysis aggregates impact reports for a set of functions.
type ImpactAnalysis struct {
	Functions         []ImpactReport `json:"functions,omitempty"`
	DirectCallers     int            `json:"direct_callers"`     // Distinct direct callers across all reports
	TransitiveCallers int            `json:"transitive_callers"` // Distinct transitive callers across all reports
	AffectedTests     int            `json:"affected_tests"`     // Distinct test callers across all reports
}

// CallGraph is the resolved call graph of a batch of files.
type CallGraph struct {
	Functions []FunctionNode `json:"functions,omitempty"`

	// callers maps a qualified name to every call site resolved to it.
	// Functions sharing a qualified name share callers.
	callers map[string][]CallerInfo
}
