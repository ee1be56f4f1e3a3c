package models

// APIResponse is the envelope of every synchronous API response.
type APIResponse struct {
	OK          bool        `json:"ok"`
	Reason      string      `json:"reason,omitempty"`
	Message     string      `json:"message,omitempty"`
	URL         string      `json:"url,omitempty"`
	AlreadyPaid bool        `json:"alreadyPaid,omitempty"`
	Retryable   bool        `json:"retryable,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// PaginatedResponse wraps a page of list results.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}
