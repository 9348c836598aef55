package services

import (
	"context"
	"dispatch-board-service/internal/ports"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

const (
	prefDispatchGroup = "dispatch_group_id"
	prefHideBookings  = "hide_bookings"
)

var ErrUnknownDispatchGroup = errors.New("unknown dispatch group")

// What the board remembers for one user between visits.
type Preferences struct {
	DispatchGroupID string
	HideBookings    bool
}

// Preferences service: reads and writes board settings for a user scope.
type PreferenceService struct {
	store   ports.PreferenceStore
	backend ports.FleetBackend
}

func NewPreferenceService(store ports.PreferenceStore, backend ports.FleetBackend) *PreferenceService {
	return &PreferenceService{store: store, backend: backend}
}

// Get returns the stored settings. A remembered dispatch group that no longer
// exists is forgotten and reported as none.
func (s *PreferenceService) Get(ctx context.Context, scope string) (Preferences, error) {
	var p Preferences

	groupID, ok, err := s.store.Get(ctx, scope, prefDispatchGroup)
	if err != nil {
		return Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	if ok && groupID != "" {
		exists, err := s.groupExists(ctx, groupID)
		if err != nil {
			return Preferences{}, fmt.Errorf("get preferences: %w", err)
		}
		if exists {
			p.DispatchGroupID = groupID
		} else {
			zap.L().Info("dropping stale dispatch group preference",
				zap.String("scope", scope), zap.String("dispatch_group_id", groupID))
			if err := s.store.Remove(ctx, scope, prefDispatchGroup); err != nil {
				return Preferences{}, fmt.Errorf("get preferences: %w", err)
			}
		}
	}

	hide, ok, err := s.store.Get(ctx, scope, prefHideBookings)
	if err != nil {
		return Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	if ok {
		p.HideBookings, _ = strconv.ParseBool(hide)
	}

	return p, nil
}

// SetDispatchGroup remembers the selected group. An empty id clears it.
func (s *PreferenceService) SetDispatchGroup(ctx context.Context, scope, groupID string) error {
	if groupID == "" {
		if err := s.store.Remove(ctx, scope, prefDispatchGroup); err != nil {
			return fmt.Errorf("set dispatch group: %w", err)
		}
		return nil
	}

	exists, err := s.groupExists(ctx, groupID)
	if err != nil {
		return fmt.Errorf("set dispatch group: %w", err)
	}
	if !exists {
		return fmt.Errorf("set dispatch group: %q: %w", groupID, ErrUnknownDispatchGroup)
	}

	if err := s.store.Set(ctx, scope, prefDispatchGroup, groupID); err != nil {
		return fmt.Errorf("set dispatch group: %w", err)
	}
	return nil
}

func (s *PreferenceService) SetHideBookings(ctx context.Context, scope string, hide bool) error {
	if err := s.store.Set(ctx, scope, prefHideBookings, strconv.FormatBool(hide)); err != nil {
		return fmt.Errorf("set hide bookings: %w", err)
	}
	return nil
}

func (s *PreferenceService) groupExists(ctx context.Context, id string) (bool, error) {
	groups, err := s.backend.ListDispatchGroups(ctx)
	if err != nil {
		return false, fmt.Errorf("list dispatch groups: %w", err)
	}
	for _, g := range groups {
		if g.ID == id {
			return true, nil
		}
	}
	return false, nil
}
