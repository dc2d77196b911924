package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"arbmonitor/internal/domain"
	"arbmonitor/internal/spread"

	"github.com/sirupsen/logrus"
)

// refreshSources refreshes every source through a bounded worker pool and
// returns once all of them finished, so no source is read mid-update.
func refreshSources(ctx context.Context, sources []*PriceSource, numWorkers int, perRequestTimeout time.Duration) []error {
	if len(sources) == 0 {
		return nil
	}

	workQueue := make(chan *PriceSource, len(sources))
	for _, s := range sources {
		workQueue <- s
	}
	close(workQueue)

	errCh := make(chan error, len(sources))
	var wg sync.WaitGroup
	for i := 0; i < min(numWorkers, len(sources)); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case src, ok := <-workQueue:
					if !ok {
						return
					}
					if err := refreshOne(ctx, src, perRequestTimeout); err != nil {
						logrus.WithError(err).Debugf("Source %s %s not refreshed by worker %d", src.Exchange(), src.Pair(), workerID)
						errCh <- err
					}
				}
			}
		}(i)
	}

	wg.Wait()
	close(errCh)

	errs := make([]error, 0, len(errCh))
	for err := range errCh {
		errs = append(errs, err)
	}
	return errs
}

func refreshOne(ctx context.Context, src *PriceSource, perRequestTimeout time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.RefreshError{Exchange: src.Exchange(), Pair: src.Pair().String(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	reqCtx, cancel := context.WithTimeout(ctx, perRequestTimeout)
	defer cancel()
	return src.Refresh(reqCtx)
}

func evaluateRoute(ctx context.Context, route Route, perRouteTimeout time.Duration) (s domain.TriSpread, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("route %s panicked: %v", route.String(), r)
		}
	}()
	routeCtx, cancel := context.WithTimeout(ctx, perRouteTimeout)
	defer cancel()
	return spread.ComputeTriSpread(routeCtx, route.Fetcher, route.TriangularRoute)
}

type routeResult struct {
	index  int
	spread domain.TriSpread
	err    error
}

// evaluateRoutes computes triangular spreads in parallel; results keep the configured route order.
func evaluateRoutes(ctx context.Context, routes []Route, numWorkers int, perRouteTimeout time.Duration) ([]domain.TriSpread, []error) {
	if len(routes) == 0 {
		return []domain.TriSpread{}, nil
	}

	workQueue := make(chan int, len(routes))
	for i := range routes {
		workQueue <- i
	}
	close(workQueue)

	resultsCh := make(chan routeResult, len(routes))
	var wg sync.WaitGroup
	for i := 0; i < min(numWorkers, len(routes)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-workQueue:
					if !ok {
						return
					}
					s, err := evaluateRoute(ctx, routes[idx], perRouteTimeout)
					resultsCh <- routeResult{index: idx, spread: s, err: err}
				}
			}
		}()
	}

	wg.Wait()
	close(resultsCh)

	ordered := make([]*routeResult, len(routes))
	for res := range resultsCh {
		ordered[res.index] = &res
	}

	spreads := make([]domain.TriSpread, 0, len(routes))
	var errs []error
	for _, res := range ordered {
		if res == nil {
			continue
		}
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		spreads = append(spreads, res.spread)
	}
	return spreads, errs
}
