package dto

import (
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/ports"
	"dispatch-board-service/internal/services"
	"time"
)

type DraftRequest struct {
	BookingID       string `json:"booking_id" validate:"required"`
	EntityType      string `json:"entity_type" validate:"required,oneof=Vehicle Driver"`
	EntityID        string `json:"entity_id" validate:"required"`
	Tab             string `json:"tab" validate:"required,oneof=Plan Current Complete"`
	DispatchGroupID string `json:"dispatch_group_id"`
}

func (r DraftRequest) Assign() services.AssignRequest {
	return services.AssignRequest{
		BookingID:  r.BookingID,
		EntityType: domain.ResourceType(r.EntityType),
		EntityID:   r.EntityID,
		Board: services.BoardQuery{
			Tab:             domain.BoardTab(r.Tab),
			DispatchGroupID: r.DispatchGroupID,
		},
	}
}

type ResourceRowResponse struct {
	RowID      int             `json:"row_id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Editable   bool            `json:"editable"`
	Removable  bool            `json:"removable"`
	Entity     *EntityResponse `json:"entity"`
}

type DraftResponse struct {
	Booking        BookingResponse       `json:"booking"`
	StopsBegin     int                   `json:"stops_begin"`
	FixedResources int                   `json:"fixed_resources"`
	Resources      []ResourceRowResponse `json:"resources"`
	Vehicles       []EntityResponse      `json:"vehicles"`
	Drivers        []EntityResponse      `json:"drivers"`
}

func FromDraft(d *services.TripDraft) DraftResponse {
	res := DraftResponse{
		Booking:        FromBooking(d.Booking),
		StopsBegin:     d.StopsBegin,
		FixedResources: d.FixedResources,
		Resources:      make([]ResourceRowResponse, 0, len(d.Resources)),
		Vehicles:       make([]EntityResponse, 0, len(d.Vehicles())),
		Drivers:        make([]EntityResponse, 0, len(d.Drivers())),
	}
	for _, row := range d.Resources {
		rr := ResourceRowResponse{
			RowID:      row.RowID,
			EntityType: string(row.EntityType),
			EntityID:   row.EntityID,
			Editable:   row.Editable,
			Removable:  row.Removable,
		}
		if row.Entity != nil {
			e := FromEntity(row.Entity)
			rr.Entity = &e
		}
		res.Resources = append(res.Resources, rr)
	}
	for _, v := range d.Vehicles() {
		res.Vehicles = append(res.Vehicles, FromEntity(v))
	}
	for _, dr := range d.Drivers() {
		res.Drivers = append(res.Drivers, FromEntity(dr))
	}
	return res
}

type ResourceRequest struct {
	EntityType string `json:"entity_type" validate:"required,oneof=Vehicle Driver"`
	EntityID   string `json:"entity_id" validate:"required"`
}

type AddressRequest struct {
	Line1   string `json:"line1" validate:"required"`
	Line2   string `json:"line2"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
}

type StopRequest struct {
	ArriveDate              time.Time       `json:"arrive_date" validate:"required"`
	LoadedType              string          `json:"loaded_type" validate:"required,oneof=EMPTY LOADED"`
	RequiredFeedbackTypeIDs []string        `json:"required_feedback_type_ids"`
	LocationID              string          `json:"location_id" validate:"required_without=Address"`
	Address                 *AddressRequest `json:"address" validate:"required_without=LocationID"`
}

func (s StopRequest) NewStop() ports.NewStop {
	ns := ports.NewStop{
		ArriveDate:              s.ArriveDate,
		LoadedType:              domain.StopLoadType(s.LoadedType),
		RequiredFeedbackTypeIDs: s.RequiredFeedbackTypeIDs,
		LocationID:              s.LocationID,
	}
	if s.Address != nil {
		ns.Address = &domain.Address{
			Line1:   s.Address.Line1,
			Line2:   s.Address.Line2,
			City:    s.Address.City,
			State:   s.Address.State,
			Country: s.Address.Country,
			Zip:     s.Address.Zip,
		}
	}
	return ns
}

// Body of POST /trips: the draft target plus the rows and stops the user submitted.
type CreateTripRequest struct {
	DraftRequest
	Resources []ResourceRequest `json:"resources" validate:"required,min=1,dive"`
	Stops     []StopRequest     `json:"stops" validate:"dive"`
}

func (r CreateTripRequest) ResourceRefs() []ports.ResourceRef {
	refs := make([]ports.ResourceRef, 0, len(r.Resources))
	for _, res := range r.Resources {
		refs = append(refs, ports.ResourceRef{
			EntityType: domain.ResourceType(res.EntityType),
			EntityID:   res.EntityID,
		})
	}
	return refs
}

type CreateTripResponse struct {
	Trip TripResponse `json:"trip"`
}
