package dto

type PreferencesResponse struct {
	DispatchGroupID string `json:"dispatch_group_id"`
	HideBookings    bool   `json:"hide_bookings"`
}

// Omitted fields are left unchanged.
type PreferencesRequest struct {
	DispatchGroupID *string `json:"dispatch_group_id"`
	HideBookings    *bool   `json:"hide_bookings"`
}
