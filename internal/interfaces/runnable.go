package interfaces

import "context"

// Runnable is a long-living component that works until the context is cancelled
type Runnable interface {
	Run(ctx context.Context) error
}
