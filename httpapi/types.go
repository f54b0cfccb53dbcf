package httpapi

// QueryRequest is the POST /query body.
type QueryRequest struct {
	Query string `json:"query"`
	Date  string `json:"date,omitempty"`
}

// AnswerResponse is returned when an answer was extracted.
type AnswerResponse struct {
	Answer   string `json:"answer"`
	Filename string `json:"filename"`
	Date     string `json:"date"`
}

// ClarificationResponse asks the caller to resubmit with one of Dates.
type ClarificationResponse struct {
	Message string   `json:"message"`
	Dates   []string `json:"dates"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the GET /healthz body.
type HealthResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	BuiltAt   string `json:"built_at,omitempty"`
}

// DocumentInfo describes one served document.
type DocumentInfo struct {
	Filename string `json:"filename"`
	Date     string `json:"date"`
	Dated    bool   `json:"dated"`
}

// UploadResponse is the POST /upload body.
type UploadResponse struct {
	Questions []string     `json:"questions"`
	Answers   []QAResponse `json:"answers"`
}

// QAResponse is one generated question and its answer.
type QAResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

const (
	msgNoContext     = "No input context provided"
	msgMultipleDates = "multiple dates found"
	msgNoneForDate   = "no documents found for the specified date"
	msgNone          = "no documents found"
)
