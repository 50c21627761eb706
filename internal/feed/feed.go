package feed

import (
	"context"
	"fmt"
)

// Sample is one throughput reading in kilograms per hour.
type Sample struct {
	Processed float64 `json:"processed_kg"`
	Exported  float64 `json:"exported_kg"`
}

// String formats the sample for logs.
func (s Sample) String() string {
	return fmt.Sprintf("processed=%gkg exported=%gkg", s.Processed, s.Exported)
}

// Source produces samples until the returned stop func is called.
// emit may be called from any goroutine.
type Source interface {
	Start(ctx context.Context, emit func(Sample)) (stop func(), err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, emit func(Sample)) (func(), error)

// Start calls f.
func (f SourceFunc) Start(ctx context.Context, emit func(Sample)) (func(), error) {
	return f(ctx, emit)
}

// Static emits the same sample on every start.
func Static(s Sample) Source {
	return SourceFunc(func(_ context.Context, emit func(Sample)) (func(), error) {
		emit(s)
		return func() {}, nil
	})
}
