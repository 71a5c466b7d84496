package dto

// ErrorResponse is the JSON body of a failed HTTP request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// IngestResponse is the JSON body of a successful ingestion trigger.
type IngestResponse struct {
	Success bool       `json:"success"`
	Results *RunResult `json:"results"`
}

// StatusResponse is the JSON body of the ingestion status endpoint.
type StatusResponse struct {
	Status string          `json:"status"`
	Stats  *IngestionStats `json:"stats"`
}
