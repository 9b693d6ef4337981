package models

import (
	"time"

	"github.com/google/uuid"
)

type ExecRequest struct {
	Code     string `json:"code" validate:"required,max=65536"`
	Language string `json:"language" validate:"required"`
	Stdin    string `json:"stdin" validate:"max=65536"`
}

// Error kinds reported by the sandbox.
const (
	ExecErrorCompile     = "compile_error"
	ExecErrorRuntime     = "runtime_error"
	ExecErrorTimeout     = "timeout"
	ExecErrorUnsupported = "unsupported_language"
	ExecErrorInternal    = "internal_error"
	ExecErrorNotAllowed  = "not_allowed"
)

type ExecResult struct {
	Success    bool   `json:"success"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	ErrorType  string `json:"errorType,omitempty"`
	ExitCode   int    `json:"exitCode"`
	DurationMs int64  `json:"durationMs"`
}

type TerminalRequest struct {
	Command string `json:"command" validate:"required,max=512"`
}

type AnalyzeRequest struct {
	Code     string `json:"code" validate:"required,max=65536"`
	Language string `json:"language" validate:"required"`
}

type CodeMetrics struct {
	TotalLines     int    `json:"total_lines"`
	CodeLines      int    `json:"code_lines"`
	CommentLines   int    `json:"comment_lines"`
	BlankLines     int    `json:"blank_lines"`
	Functions      int    `json:"functions"`
	Loops          int    `json:"loops"`
	Conditionals   int    `json:"conditionals"`
	MaxLoopNesting int    `json:"max_loop_nesting"`
	Complexity     string `json:"time_complexity"`
}

type AnalysisResult struct {
	Language      string      `json:"language"`
	Metrics       CodeMetrics `json:"metrics"`
	SyntaxValid   *bool       `json:"syntax_valid"`
	SyntaxMessage string      `json:"syntax_message,omitempty"`
	Suggestions   []string    `json:"suggestions"`
	AIReview      string      `json:"ai_review,omitempty"`
}

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
)

// ExecJob is an asynchronous execution tracked in Redis.
type ExecJob struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Request     ExecRequest `json:"request"`
	Status      string      `json:"status"`
	Result      *ExecResult `json:"result,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
