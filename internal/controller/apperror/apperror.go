// Package apperror holds the sentinel errors shared between the domain
// services and the inbound boundaries (HTTP handlers, Kafka consumers).
package apperror

import "errors"

var ErrInvalidDraft = errors.New("invalid order draft")
var ErrInvalidQuery = errors.New("invalid orders query")
var ErrProductNotFound = errors.New("product not found")
var ErrOrderNotFound = errors.New("order not found")
var ErrInvalidStatus = errors.New("invalid order status")

// ErrUnavailable marks a failed or timed out call to an external
// collaborator. The whole operation may be retried by the caller.
var ErrUnavailable = errors.New("external service unavailable")
