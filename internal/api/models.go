package api

// AcceptedResponse is the 202 body returned by the submission endpoints.
type AcceptedResponse struct {
	OperationID string `json:"operation_id"`
	ProgressURL string `json:"progress_url"`
}

// UpdateDocumentRequest is the PUT body that adds a new revision to a
// document.
type UpdateDocumentRequest struct {
	Body string `json:"body" validate:"required"`
}
