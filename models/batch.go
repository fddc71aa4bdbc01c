package models

// BatchRequest is the payload for POST /api/v1/batch/audit.
type BatchRequest struct {
	// URLs is the list of pages to audit. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100,dive,url"`

	// Notify, when set, receives one delivery per finished report.
	Notify *Notify `json:"notify,omitempty"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/audit.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchResult is the outcome for one URL of a batch.
type BatchResult struct {
	URL    string       `json:"url"`
	Report *Report      `json:"report,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Results   []*BatchResult `json:"results,omitempty"`
}

// Batch job statuses.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchPartial    = "partial"
	BatchFailed     = "failed"
)

// BatchJob tracks an in-progress batch audit.
type BatchJob struct {
	ID        string
	Status    string
	Total     int
	Completed int
	Results   []*BatchResult // indexed like the request URLs
	CreatedAt int64          // unix timestamp
}
