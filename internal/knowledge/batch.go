package knowledge

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// GroupFailure describes a group whose call failed and was replaced by placeholders.
type GroupFailure struct {
	Group int
	Start int
	Size  int
	Err   error
}

// BatchRunner fans groups of work out to a bounded number of concurrent calls.
type BatchRunner struct {
	maxConcurrent int
	onFailure     func(GroupFailure)
}

type BatchOption func(*BatchRunner)

// WithFailureHook is called once per failed group, from the group's goroutine.
func WithFailureHook(fn func(GroupFailure)) BatchOption {
	return func(r *BatchRunner) {
		r.onFailure = fn
	}
}

func NewBatchRunner(maxConcurrent int, opts ...BatchOption) *BatchRunner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	r := &BatchRunner{maxConcurrent: maxConcurrent}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunGroups splits items into consecutive groups of size and runs call on each,
// with at most r's concurrency limit in flight. The result has one string per
// item in input order. A failed group, or one that returns the wrong number of
// strings, contributes placeholder for each of its items without affecting the
// other groups. The returned error is non-nil only when ctx was cancelled.
func RunGroups[T any](ctx context.Context, r *BatchRunner, items []T, size int, placeholder string, call func(context.Context, []T) ([]string, error)) ([]string, error) {
	if size < 1 {
		size = 1
	}
	out := make([]string, len(items))

	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)
	for start, group := 0, 0; start < len(items); start, group = start+size, group+1 {
		end := min(start+size, len(items))
		g.Go(func() error {
			slot := out[start:end]
			res, err := call(ctx, items[start:end])
			if err == nil && len(res) != len(slot) {
				err = fmt.Errorf("group returned %d results, want %d", len(res), len(slot))
			}
			if err != nil {
				slog.Warn("batch group failed", "group", group, "size", len(slot), "error", err)
				for i := range slot {
					slot[i] = placeholder
				}
				if r.onFailure != nil {
					r.onFailure(GroupFailure{Group: group, Start: start, Size: len(slot), Err: err})
				}
				return nil
			}
			copy(slot, res)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
