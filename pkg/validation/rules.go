package validation

import "time"

// Common validation rules and request structs for the matcher's admin/
// submission HTTP surface.

// SubmitCustomerRequest represents a trip request submitted to the matcher.
type SubmitCustomerRequest struct {
	CustomerID      string    `json:"customer_id" validate:"required,alphanum,max=64"`
	OriginNode      int64     `json:"origin_node" validate:"required"`
	DestinationNode int64     `json:"destination_node" validate:"required"`
	EarliestPickup  time.Time `json:"earliest_pickup" validate:"required"`
	LatestDropoff   time.Time `json:"latest_dropoff" validate:"required"`
	Load            int       `json:"load" validate:"required,gte=1,lte=8"`
}

// RegisterVehicleRequest represents a vehicle being registered with the
// matcher's fleet.
type RegisterVehicleRequest struct {
	VehicleID      string    `json:"vehicle_id" validate:"required,alphanum,max=64"`
	OriginNode     int64     `json:"origin_node" validate:"required"`
	Capacity       int       `json:"capacity" validate:"required,gte=1,lte=64"`
	EarliestOnline time.Time `json:"earliest_online" validate:"required"`
}

// UpdateVehiclePositionRequest represents a vehicle location update pushed
// by the reconciler into the matcher's vehicle snapshot table.
type UpdateVehiclePositionRequest struct {
	VehicleID string  `json:"vehicle_id" validate:"required,alphanum,max=64"`
	Latitude  float64 `json:"latitude" validate:"required,latitude"`
	Longitude float64 `json:"longitude" validate:"required,longitude"`
}

// PaginationRequest represents common pagination parameters.
type PaginationRequest struct {
	Limit   int    `json:"limit" validate:"omitempty,gte=1,lte=100"`
	Offset  int    `json:"offset" validate:"omitempty,gte=0"`
	SortBy  string `json:"sort_by" validate:"omitempty,alpha"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

// DateRangeRequest represents a date range filter.
type DateRangeRequest struct {
	StartDate time.Time `json:"start_date" validate:"omitempty"`
	EndDate   time.Time `json:"end_date" validate:"omitempty"`
}

// ValidateSubmitCustomerRequest validates a trip request and checks
// business rules beyond struct tags.
func ValidateSubmitCustomerRequest(req *SubmitCustomerRequest) error {
	if err := ValidateStruct(req); err != nil {
		return err
	}

	validationErr := &ValidationError{Errors: make(map[string]string)}

	if req.OriginNode == req.DestinationNode {
		validationErr.AddError("destination_node", "origin and destination cannot be the same node")
	}

	if !req.LatestDropoff.After(req.EarliestPickup) {
		validationErr.AddError("latest_dropoff", "latest dropoff must be after earliest pickup")
	}

	if validationErr.HasErrors() {
		return validationErr
	}
	return nil
}

// ValidateDateRange validates that end date is after start date.
func ValidateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return &ValidationError{
			Errors: map[string]string{
				"date_range": "end date must be after start date",
			},
		}
	}
	return nil
}
