package dto

import (
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/services"
	"encoding/json"
	"fmt"
	"time"
)

// A vehicle or driver as shown in a board row or a resource picker.
type EntityResponse struct {
	ID              string `json:"id"`
	EntityType      string `json:"entity_type"`
	RemoteID        string `json:"remote_id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	DispatchGroupID string `json:"dispatch_group_id,omitempty"`
}

type BoardItemResponse struct {
	Entity EntityResponse `json:"entity"`
	Trips  []TripResponse `json:"trips"`
}

type BoardResponse struct {
	Tab             string              `json:"tab"`
	DispatchGroupID string              `json:"dispatch_group_id"`
	EntityType      string              `json:"entity_type"`
	LoadedAt        time.Time           `json:"loaded_at"`
	Items           []BoardItemResponse `json:"items"`
}

// Message sent to websocket watchers after each reload. It carries both
// groupings so one encoding serves every watcher of the board.
type BoardPush struct {
	Type            string              `json:"type"`
	Tab             string              `json:"tab"`
	DispatchGroupID string              `json:"dispatch_group_id"`
	LoadedAt        time.Time           `json:"loaded_at"`
	Vehicles        []BoardItemResponse `json:"vehicles"`
	Drivers         []BoardItemResponse `json:"drivers"`
}

func FromEntity(e domain.Reportable) EntityResponse {
	switch v := e.(type) {
	case *domain.Vehicle:
		res := EntityResponse{
			ID:         v.ID,
			EntityType: string(domain.ResourceVehicle),
			RemoteID:   v.RemoteID,
			Name:       v.RemoteID,
			Status:     v.Status,
		}
		if v.DispatchGroup != nil {
			res.DispatchGroupID = v.DispatchGroup.ID
		}
		return res
	case *domain.Driver:
		res := EntityResponse{
			ID:         v.ID,
			EntityType: string(domain.ResourceDriver),
			RemoteID:   v.RemoteID,
			Name:       v.Name(),
			Status:     v.Status,
		}
		if v.DispatchGroup != nil {
			res.DispatchGroupID = v.DispatchGroup.ID
		}
		return res
	}
	return EntityResponse{}
}

func FromItems(items []services.TripsHandlerItem) []BoardItemResponse {
	out := make([]BoardItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, BoardItemResponse{
			Entity: FromEntity(it.Entity()),
			Trips:  FromTrips(it.Trips),
		})
	}
	return out
}

func FromBoard(b *services.Board, entityType domain.ResourceType) (BoardResponse, error) {
	items, err := b.Handler.Items(entityType)
	if err != nil {
		return BoardResponse{}, err
	}
	return BoardResponse{
		Tab:             string(b.Query.Tab),
		DispatchGroupID: b.Query.DispatchGroupID,
		EntityType:      string(entityType),
		LoadedAt:        b.LoadedAt,
		Items:           FromItems(items),
	}, nil
}

// EncodeBoard renders b for the push feed. It satisfies services.BoardEncoder.
func EncodeBoard(b *services.Board) ([]byte, error) {
	vehicles, err := b.Handler.Items(domain.ResourceVehicle)
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	drivers, err := b.Handler.Items(domain.ResourceDriver)
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}

	return json.Marshal(BoardPush{
		Type:            "board",
		Tab:             string(b.Query.Tab),
		DispatchGroupID: b.Query.DispatchGroupID,
		LoadedAt:        b.LoadedAt,
		Vehicles:        FromItems(vehicles),
		Drivers:         FromItems(drivers),
	})
}
