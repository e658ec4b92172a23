// Package service defines the narrow contract Node.Run drives every
// long-lived component through: start, block until ctx is cancelled or a
// fatal error occurs, then return.
package service

import "context"

// Service is implemented by every component Node supervises: the HTTP/WS
// RPC listener, the interval block producer, and the L1 message poller.
type Service interface {
	Run(ctx context.Context) error
}
