package dialect

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/schemadrift/schemadrift/util"
)

type concurrentOutputWithOrder struct {
	order  int
	output any
}

// ConcurrentMap runs f over inputs with up to concurrency goroutines
// in flight, preserving input order in the result. A positive concurrency
// caps in-flight calls. If any call fails, the first error is returned once
// every started call has finished; the remaining calls are not cancelled.
// Used by adapters whose per-table introspection queries are otherwise
// independent round trips.
func ConcurrentMap[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	ch := make(chan concurrentOutputWithOrder, len(inputs))
	for i := range inputs {
		order := i
		in := inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			ch <- concurrentOutputWithOrder{order, out}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	close(ch)

	tmp := make([]concurrentOutputWithOrder, 0, len(inputs))
	for t := range ch {
		tmp = append(tmp, t)
	}
	slices.SortFunc(tmp, func(a, b concurrentOutputWithOrder) int {
		return cmp.Compare(a.order, b.order)
	})

	return util.TransformSlice(tmp, func(t concurrentOutputWithOrder) Tout {
		return t.output.(Tout)
	}), nil
}
