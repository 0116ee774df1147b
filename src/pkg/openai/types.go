package openai

type TextVerbosity string

const (
	TextVerbosityLow    TextVerbosity = "low"
	TextVerbosityMedium TextVerbosity = "medium" // default when omitted
	TextVerbosityHigh   TextVerbosity = "high"
)

type InputRole string

const (
	RoleDeveloper InputRole = "developer"
	RoleUser      InputRole = "user"
)

type Effort string

const (
	EffortMinimal Effort = "minimal"
	EffortLow     Effort = "low"
	EffortMedium  Effort = "medium"
	EffortHigh    Effort = "high"
)

// parameters that SendPromptReturnResponse takes. Background, Store and
// polling are decided by the client and are not exposed here.
type InputParameters struct {
	Model              string       `json:"model"`
	Instructions       string       `json:"instructions"`
	MaxOutputTokens    *int         `json:"max_output_tokens,omitempty"`
	Input              []InputItem  `json:"input"`
	PreviousResponseID string       `json:"previous_response_id,omitempty"`
	Reasoning          *Reasoning   `json:"reasoning"`
	Temperature        *float64     `json:"temperature,omitempty"` // GPT-5 family only accepts 1.0
	Text               *TextOptions `json:"text,omitempty"`
}

// ----- Request types we send -----

// InputItem is the simplest message shape the Responses API accepts.
// Content is a plain string or a list of typed parts (input_text, input_image).
type InputItem struct {
	Role    InputRole `json:"role"`
	Content any       `json:"content"`
}

type requestPayload struct {
	Model              string       `json:"model"`
	Instructions       string       `json:"instructions"`
	MaxOutputTokens    *int         `json:"max_output_tokens,omitempty"`
	Input              []InputItem  `json:"input"`
	PreviousResponseID string       `json:"previous_response_id,omitempty"`
	Reasoning          *Reasoning   `json:"reasoning,omitempty"`
	Store              bool         `json:"store,omitempty"`
	Temperature        *float64     `json:"temperature,omitempty"`
	Background         bool         `json:"background,omitempty"`
	Text               *TextOptions `json:"text,omitempty"`
}

type Reasoning struct {
	Effort *Effort `json:"effort,omitempty"`
}

/*
TextOptions configures output formatting in Responses API.

	"text": { "format": { "type": "json_schema", "name": "...", "schema": {...}, "strict": true } }
*/
type TextOptions struct {
	Format    TextFormat    `json:"format"`
	Verbosity TextVerbosity `json:"verbosity,omitempty"`
}

// For type == "json_schema", Name and Schema are required.
type TextFormat struct {
	Type   TextFormatType `json:"type"`
	Name   string         `json:"name,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
	Strict *bool          `json:"strict,omitempty"`
}

type TextFormatType string

const (
	TextFormatTypeText       TextFormatType = "text"
	TextFormatTypeJSONSchema TextFormatType = "json_schema"
)

func TextAsJSONSchema(name string, schema map[string]any, strict bool) TextOptions {
	return TextOptions{
		Format: TextFormat{
			Type:   TextFormatTypeJSONSchema,
			Name:   name,
			Schema: schema,
			Strict: &strict,
		},
	}
}

// ----- Response types we parse -----

/*
Wire structs for the Responses API, only the fields LLMRunMetadata and the
text extraction need.
*/
type responseObject struct {
	ID                 string       `json:"id"`
	Object             string       `json:"object"`
	CreatedAt          int64        `json:"created_at,omitempty"`
	Model              string       `json:"model"`
	Status             string       `json:"status"` // "completed", "in_progress", "failed", etc.
	Output             []outputItem `json:"output"`
	Usage              *usageBlock  `json:"usage,omitempty"`
	PreviousResponseID string       `json:"previous_response_id,omitempty"`
	Error              any          `json:"error,omitempty"`

	Temperature float64    `json:"temperature,omitempty"`
	Reasoning   *Reasoning `json:"reasoning,omitempty"`
}

type outputItem struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"` // "message" or tool events
	Role    string        `json:"role,omitempty"`
	Content []contentItem `json:"content,omitempty"`
}

type contentItem struct {
	Type string `json:"type"` // "output_text"
	Text string `json:"text,omitempty"`
}

type usageBlock struct {
	InputTokens         int                  `json:"input_tokens"`
	InputTokensDetails  *inputTokensDetails  `json:"input_tokens_details"`
	OutputTokens        int                  `json:"output_tokens"`
	TotalTokens         int                  `json:"total_tokens"`
	OutputTokensDetails *outputTokensDetails `json:"output_tokens_details,omitempty"`
}

type inputTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

type outputTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// LLMRunMetadata captures how a model response was generated.
type LLMRunMetadata struct {
	ResponseID      string `json:"response_id"`
	ResponseLogsUrl string `json:"response_logs_url"` // https://platform.openai.com/logs/<ResponseID>
	Model           string `json:"model"`
	ModelSnapshot   string `json:"model_snapshot"` // e.g. "2025-08-07"
	Status          string `json:"status"`
	ReasoningEffort Effort `json:"reasoning_effort"`

	Temperature float64 `json:"temperature"`

	TokensIn        int `json:"tokens_in"`
	TokensCached    int `json:"tokens_cached"`
	TokensOut       int `json:"tokens_out"`
	TokensReasoning int `json:"tokens_reasoning"`
	TokensTotal     int `json:"tokens_total"`

	StartedAt  int64 `json:"started_at"`
	FinishedAt int64 `json:"finished_at"`
	Elapsed    int64 `json:"elapsed"` // milliseconds
}
