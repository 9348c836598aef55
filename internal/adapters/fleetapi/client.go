package fleetapi

import (
	"bytes"
	"context"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/platform/obs"
	"dispatch-board-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Collections are fetched as a single page of this size.
const pageLimit = 1000

// Client implements FleetBackend over the fleet REST API.
//
// Non-2xx responses surface as *HTTPStatusError; a 404 on a single record
// also matches ports.ErrNotFound. Requests are not retried.
//
// The client is safe for concurrent use.
type Client struct {
	session *http.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("fleet api base url is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("fleet api base url: %w", err)
	}

	return &Client{
		session: &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}, nil
}

func listQuery(sort string) url.Values {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(pageLimit))
	q.Set("page", "1")
	q.Set("sort", sort)
	return q
}

func (c *Client) ListTrips(ctx context.Context, tq ports.TripQuery) (_ []*domain.Trip, err error) {
	defer obs.Time(ctx, "fleetapi.ListTrips")(&err)

	q := listQuery("createdAt.DESC")
	for _, s := range tq.Statuses {
		q.Add("statuses[]", string(s))
	}
	if tq.DispatchGroupID != "" {
		q.Set("dispatchGroupId", tq.DispatchGroupID)
	}

	var p page[wireTrip]
	if err := c.getJSON(ctx, "api/web/dispatching/trips?"+q.Encode(), &p); err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	out := make([]*domain.Trip, 0, len(p.Results))
	for _, t := range p.Results {
		out = append(out, t.toDomain())
	}
	return out, nil
}

func (c *Client) ListBookings(ctx context.Context, status domain.BookingStatus) (_ []*domain.Booking, err error) {
	defer obs.Time(ctx, "fleetapi.ListBookings")(&err)

	path := "api/web/dispatching/bookings"
	if status != domain.BookingAll && status != "" {
		path += "/" + url.PathEscape(string(status))
	}

	var p page[wireBooking]
	if err := c.getJSON(ctx, path+"?"+listQuery("createdAt.DESC").Encode(), &p); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	out := make([]*domain.Booking, 0, len(p.Results))
	for _, b := range p.Results {
		out = append(out, b.toDomain())
	}
	return out, nil
}

func (c *Client) GetBooking(ctx context.Context, id string) (_ *domain.Booking, err error) {
	defer obs.Time(ctx, "fleetapi.GetBooking")(&err)

	var b wireBooking
	if err := c.getJSON(ctx, "api/web/dispatching/bookings/details/"+url.PathEscape(id), &b); err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, notFound(err))
	}
	return b.toDomain(), nil
}

func (c *Client) ListVehicles(ctx context.Context) (_ []*domain.Vehicle, err error) {
	defer obs.Time(ctx, "fleetapi.ListVehicles")(&err)

	var p page[wireVehicle]
	if err := c.getJSON(ctx, "api/web/vehicles?"+listQuery("remoteId.ASC").Encode(), &p); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}

	out := make([]*domain.Vehicle, 0, len(p.Results))
	for _, v := range p.Results {
		out = append(out, v.toDomain())
	}
	return out, nil
}

func (c *Client) ListDrivers(ctx context.Context) (_ []*domain.Driver, err error) {
	defer obs.Time(ctx, "fleetapi.ListDrivers")(&err)

	var p page[wireDriver]
	if err := c.getJSON(ctx, "api/web/drivers?"+listQuery("remoteId.ASC").Encode(), &p); err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}

	out := make([]*domain.Driver, 0, len(p.Results))
	for _, d := range p.Results {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *Client) ListDispatchGroups(ctx context.Context) (_ []*domain.DispatchGroup, err error) {
	defer obs.Time(ctx, "fleetapi.ListDispatchGroups")(&err)

	var p page[wireDispatchGroup]
	if err := c.getJSON(ctx, "api/web/dispatchgroups/light?"+listQuery("name.ASC").Encode(), &p); err != nil {
		return nil, fmt.Errorf("list dispatch groups: %w", err)
	}

	out := make([]*domain.DispatchGroup, 0, len(p.Results))
	for i := range p.Results {
		out = append(out, p.Results[i].toDomain())
	}
	return out, nil
}

func (c *Client) CreateTrip(ctx context.Context, tr ports.CreateTripRequest) (_ *domain.Trip, err error) {
	defer obs.Time(ctx, "fleetapi.CreateTrip")(&err)

	payload, err := json.Marshal(fromCreateTrip(tr))
	if err != nil {
		return nil, fmt.Errorf("marshal create trip request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "api/web/dispatching/trips", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("create trip: %w", notFound(err))
	}
	defer resp.Body.Close()

	var t wireTrip
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode created trip: %w", err)
	}
	return t.toDomain(), nil
}

func (c *Client) DeleteTrip(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "fleetapi.DeleteTrip")(&err)

	req, err := c.newRequest(ctx, http.MethodDelete, "api/web/dispatching/trips/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("delete trip %s: %w", id, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete trip %s: %w", id, notFound(err))
	}
	resp.Body.Close()
	return nil
}

// notFound adds ports.ErrNotFound to the chain of a 404 response error.
func notFound(err error) error {
	var he *HTTPStatusError
	if errors.As(err, &he) && he.Code == http.StatusNotFound {
		return errors.Join(ports.ErrNotFound, err)
	}
	return err
}
