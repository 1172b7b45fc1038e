// Package jsonapi provides the JSON:API error document returned by every
// failing endpoint.
package jsonapi

import (
	"net/http"
	"strconv"
)

// Document is a JSON:API top-level document carrying errors.
// See: https://jsonapi.org/format/#document-structure
type Document struct {
	Errors []Error `json:"errors"`
}

// Error is a JSON:API error object. Code is a stable machine-readable
// kind such as "validation" or "retrieval_empty".
type Error struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// NewError builds an error object for an HTTP status.
func NewError(status int, code, detail string) Error {
	return Error{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  http.StatusText(status),
		Detail: detail,
	}
}

// NewDocument wraps errors in a document.
func NewDocument(errors ...Error) Document {
	return Document{Errors: errors}
}
