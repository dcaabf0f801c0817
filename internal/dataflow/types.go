package dataflow

// Source types.
const (
	SourceHTTPBody    = "http_body"
	SourceHTTPQuery   = "http_query"
	SourceHTTPHeader  = "http_header"
	SourceHTTPPath    = "http_path"
	SourceUserInput   = "user_input"
	SourceEnvVar      = "env_var"
	SourceFileRead    = "file_read"
	SourceDatabase    = "database"
	SourceExternalAPI = "external_api"
)

// Sink types.
const (
	SinkDatabase     = "database"
	SinkCommandExec  = "command_exec"
	SinkHTTPResponse = "http_response"
	SinkLogging      = "logging"
	SinkFileWrite    = "file_write"
	SinkTemplate     = "template"
	SinkRedirect     = "redirect"
)

// Risk is the severity assigned to a flow.
type Risk string

const (
	RiskCritical Risk = "critical"
	RiskHigh     Risk = "high"
	RiskMedium   Risk = "medium"
	RiskLow      Risk = "low"
	RiskInfo     Risk = "info"
)

// Rank orders risks from critical (4) down to info (0).
func (r Risk) Rank() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// Source is a location producing untrusted data.
type Source struct {
	SourceType string `json:"source_type"`
	Variable   string `json:"variable"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Pattern    string `json:"pattern"` // Description of the matched idiom
}

// Sink is a location consuming data in a dangerous operation.
type Sink struct {
	SinkType string `json:"sink_type"`
	Variable string `json:"variable"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Pattern  string `json:"pattern"`
	Context  string `json:"context,omitempty"` // Full source line, inspected for sanitizers
}

// Flow links a source to a sink it reaches.
type Flow struct {
	ID        string   `json:"id"` // First 16 hex chars of a sha256 over both locations
	Source    Source   `json:"source"`
	Sink      Sink     `json:"sink"`
	Risk      Risk     `json:"risk"`
	Sanitized bool     `json:"sanitized,omitempty"`
	Sanitizer string   `json:"sanitizer,omitempty"`
	Path      []string `json:"path,omitempty"` // Variables from the source binding to the one used at the sink
}

// NilSource is a variable bound from an idiom that may yield no value.
type NilSource struct {
	Variable string `json:"variable"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Pattern  string `json:"pattern"`
	Reason   string `json:"reason"`
}

// Result is the outcome of analyzing a set of files.
type Result struct {
	Sources    []Source    `json:"sources,omitempty"`
	Sinks      []Sink      `json:"sinks,omitempty"`
	Flows      []Flow      `json:"flows,omitempty"`
	NilSources []NilSource `json:"nil_sources,omitempty"`
	Error      string      `json:"error,omitempty"`
}
