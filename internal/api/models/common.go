// Package models defines request and response types for the REST API.
// All types are JSON-serializable and include validation tags where
// appropriate.
package models

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	// Kind is the machine-readable error class, e.g. "validation".
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// StatusResponse represents a simple status response.
type StatusResponse struct {
	Status string `json:"status"`
}

// ListMeta carries pagination hints alongside list payloads.
type ListMeta struct {
	Count  int    `json:"count"`
	Marker string `json:"marker,omitempty"`
}
