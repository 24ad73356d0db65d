package client

import (
	"context"
	"errors"
	"iter"

	"github.com/pithecene-io/intel/types"
)

// Backend is the agent API as seen by the CLI.
// Implemented by the HTTP Client and by MockBackend.
type Backend interface {
	// Health returns the backend health, mapped to the dashboard shape.
	Health(ctx context.Context) (*types.HealthStatus, error)

	// Stats returns mission statistics, mapped to the dashboard shape.
	Stats(ctx context.Context) (*types.MissionStats, error)

	// Reports returns persisted mission logs.
	Reports(ctx context.Context) ([]types.MissionLog, error)

	// ExecuteStream runs one mission and delivers decoded chunks in order.
	//
	// onChunk is called synchronously for every valid frame. A fatal failure
	// is delivered once to onError and also returned. Frames that fail
	// validation are dropped. When ctx is canceled neither callback is
	// invoked again and ctx.Err() is returned.
	ExecuteStream(ctx context.Context, req types.MissionRequest, onChunk func(types.StreamChunk), onError func(error)) error
}

// Stream is the pull form of Backend.ExecuteStream.
//
// It yields chunks with a nil error, and at most one final non-nil error.
// Breaking out of the loop cancels the underlying stream.
func Stream(ctx context.Context, b Backend, req types.MissionRequest) iter.Seq2[types.StreamChunk, error] {
	return func(yield func(types.StreamChunk, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		errDelivered := false

		err := b.ExecuteStream(ctx, req,
			func(chunk types.StreamChunk) {
				if stopped {
					return
				}
				if !yield(chunk, nil) {
					stopped = true
					cancel()
				}
			},
			func(err error) {
				if stopped {
					return
				}
				errDelivered = true
				stopped = true
				yield(types.StreamChunk{}, err)
			},
		)

		if err != nil && !stopped && !errDelivered && !errors.Is(err, context.Canceled) {
			yield(types.StreamChunk{}, err)
		}
	}
}
