package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"placedesk/internal/domain"
)

const resolveMaxConcurrency = 8

// resolvePlaces fetches every id independently and concurrently, mapping
// results positionally so the output order always matches ids regardless
// of completion order. A failed fetch leaves a stub carrying just the id
// in that position; the joined errors are returned for logging, never to
// abort the batch.
func (e *Editor) resolvePlaces(ctx context.Context, ids []domain.ID) ([]domain.Place, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	places := make([]domain.Place, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	semCh := make(chan struct{}, min(resolveMaxConcurrency, len(ids)))

	for i, id := range ids {
		wg.Add(1)
		semCh <- struct{}{}

		go func(i int, id domain.ID) {
			defer wg.Done()
			defer func() { <-semCh }()

			place, err := e.backend.Place(ctx, id)
			if err != nil {
				errs[i] = fmt.Errorf("resolve place %s: %w", id, err)
				places[i] = domain.Place{ID: id}

				return
			}

			places[i] = *place
		}(i, id)
	}

	wg.Wait()

	return places, errors.Join(errs...)
}
