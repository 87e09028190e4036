package models

type FailedItem struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type BulkResult struct {
	Success        bool         `json:"success"`
	TotalRequested int          `json:"total_requested"`
	SucceededIDs   []string     `json:"succeeded_ids"`
	FailedItems    []FailedItem `json:"failed_items"`
	SuccessRate    float64      `json:"success_rate"`
}
