package services

import (
	"context"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/platform/obs"
	"dispatch-board-service/internal/ports"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrUnknownTab is returned for a board tab other than Plan, Current or Complete.
var ErrUnknownTab = errors.New("unknown board tab")

// Selects which trips a board shows.
type BoardQuery struct {
	Tab             domain.BoardTab
	DispatchGroupID string
}

// Key identifies the board session serving this query.
func (q BoardQuery) Key() string {
	return string(q.Tab) + "|" + q.DispatchGroupID
}

// A loaded, initialized board. Immutable once returned.
type Board struct {
	Query    BoardQuery
	Handler  *TripsHandler
	Vehicles []*domain.Vehicle
	Drivers  []*domain.Driver
	LoadedAt time.Time
	Seq      uint64
}

// LoadBoard fetches vehicles, drivers and the tab's trips concurrently and
// returns a board whose grouping is ready to read.
func LoadBoard(ctx context.Context, backend ports.FleetBackend, q BoardQuery) (_ *Board, err error) {
	defer obs.Time(ctx, "board.Load")(&err)

	if !q.Tab.Valid() {
		return nil, fmt.Errorf("load board: tab %q: %w", q.Tab, ErrUnknownTab)
	}

	var (
		vehicles []*domain.Vehicle
		drivers  []*domain.Driver
		trips    []*domain.Trip
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var e error
		if vehicles, e = backend.ListVehicles(gctx); e != nil {
			return fmt.Errorf("list vehicles: %w", e)
		}
		return nil
	})
	g.Go(func() error {
		var e error
		if drivers, e = backend.ListDrivers(gctx); e != nil {
			return fmt.Errorf("list drivers: %w", e)
		}
		return nil
	})
	g.Go(func() error {
		var e error
		trips, e = backend.ListTrips(gctx, ports.TripQuery{
			Statuses:        q.Tab.Statuses(),
			DispatchGroupID: q.DispatchGroupID,
		})
		if e != nil {
			return fmt.Errorf("list trips: %w", e)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}

	handler := NewTripsHandler(trips)
	handler.InitWith(vehicles, drivers)

	return &Board{
		Query:    q,
		Handler:  handler,
		Vehicles: vehicles,
		Drivers:  drivers,
		LoadedAt: time.Now(),
	}, nil
}
