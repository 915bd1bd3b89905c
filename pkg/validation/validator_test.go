package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ops@example.com"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail(""))
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.True(t, ValidatePhoneNumber("+14155552671"))
	assert.False(t, ValidatePhoneNumber("not-a-phone"))
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(37.7749, -122.4194))
	assert.Error(t, ValidateCoordinates(91, 0))
	assert.Error(t, ValidateCoordinates(0, 181))
}

func TestValidateDistance(t *testing.T) {
	assert.NoError(t, ValidateDistance(12.5))
	assert.Error(t, ValidateDistance(-1))
	assert.Error(t, ValidateDistance(10001))
}

func TestValidateCapacity(t *testing.T) {
	assert.NoError(t, ValidateCapacity(4))
	assert.Error(t, ValidateCapacity(0))
	assert.Error(t, ValidateCapacity(65))
}

func TestValidateStringLength(t *testing.T) {
	assert.NoError(t, ValidateStringLength("hello", 1, 10))
	assert.Error(t, ValidateStringLength("", 1, 10))
	assert.Error(t, ValidateStringLength("too long a string", 1, 5))
}

func TestValidateUUID(t *testing.T) {
	assert.True(t, ValidateUUID("550e8400-e29b-41d4-a716-446655440000"))
	assert.False(t, ValidateUUID("not-a-uuid"))
}

func TestValidateDateRange(t *testing.T) {
	start := time.Now()
	end := start.Add(time.Hour)
	assert.NoError(t, ValidateDateRange(start, end))
	assert.Error(t, ValidateDateRange(end, start))
}

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{Errors: map[string]string{"customer_id": "is required"}}
	assert.Contains(t, ve.Error(), "customer_id: is required")
}

func TestValidationError_Error_MultipleFields(t *testing.T) {
	ve := &ValidationError{Errors: map[string]string{
		"customer_id": "is required",
		"load":        "must be at least 1",
	}}
	errStr := ve.Error()
	assert.Contains(t, errStr, "customer_id: is required")
	assert.Contains(t, errStr, "load: must be at least 1")
}

func TestValidationError_AddError(t *testing.T) {
	ve := &ValidationError{}
	ve.AddError("field1", "error1")

	assert.NotNil(t, ve.Errors)
	msg, exists := ve.GetFieldError("field1")
	assert.True(t, exists)
	assert.Equal(t, "error1", msg)
}

func TestValidationError_AddError_NilMap(t *testing.T) {
	ve := &ValidationError{Errors: nil}
	ve.AddError("field", "message")

	assert.NotNil(t, ve.Errors)
	assert.Equal(t, "message", ve.Errors["field"])
}

func TestValidationError_HasErrors(t *testing.T) {
	ve := &ValidationError{Errors: make(map[string]string)}
	assert.False(t, ve.HasErrors())

	ve.AddError("x", "y")
	assert.True(t, ve.HasErrors())
}

func TestValidationError_GetFieldError(t *testing.T) {
	ve := &ValidationError{Errors: map[string]string{"name": "is required"}}

	msg, exists := ve.GetFieldError("name")
	assert.True(t, exists)
	assert.Equal(t, "is required", msg)

	_, exists = ve.GetFieldError("missing")
	assert.False(t, exists)
}

func TestValidateStruct_SubmitCustomerRequest_Valid(t *testing.T) {
	req := SubmitCustomerRequest{
		CustomerID:      "C1",
		OriginNode:      10,
		DestinationNode: 20,
		EarliestPickup:  time.Now(),
		LatestDropoff:   time.Now().Add(time.Hour),
		Load:            1,
	}
	assert.NoError(t, ValidateStruct(&req))
}

func TestValidateStruct_SubmitCustomerRequest_MissingFields(t *testing.T) {
	req := SubmitCustomerRequest{}
	err := ValidateStruct(&req)
	assert.Error(t, err)
}

func TestValidateSubmitCustomerRequest_SameOriginDestination(t *testing.T) {
	req := &SubmitCustomerRequest{
		CustomerID:      "C1",
		OriginNode:      10,
		DestinationNode: 10,
		EarliestPickup:  time.Now(),
		LatestDropoff:   time.Now().Add(time.Hour),
		Load:            1,
	}
	err := ValidateSubmitCustomerRequest(req)
	require := assert.New(t)
	require.Error(err)
	ve, ok := err.(*ValidationError)
	require.True(ok)
	_, exists := ve.GetFieldError("destination_node")
	require.True(exists)
}

func TestValidateSubmitCustomerRequest_DropoffBeforePickup(t *testing.T) {
	now := time.Now()
	req := &SubmitCustomerRequest{
		CustomerID:      "C1",
		OriginNode:      10,
		DestinationNode: 20,
		EarliestPickup:  now,
		LatestDropoff:   now.Add(-time.Hour),
		Load:            1,
	}
	err := ValidateSubmitCustomerRequest(req)
	assert.Error(t, err)
}

func TestValidateStruct_RegisterVehicleRequest_Valid(t *testing.T) {
	req := RegisterVehicleRequest{
		VehicleID:      "V1",
		OriginNode:     10,
		Capacity:       4,
		EarliestOnline: time.Now(),
	}
	assert.NoError(t, ValidateStruct(&req))
}

func TestValidateStruct_RegisterVehicleRequest_InvalidCapacity(t *testing.T) {
	req := RegisterVehicleRequest{
		VehicleID:      "V1",
		OriginNode:     10,
		Capacity:       0,
		EarliestOnline: time.Now(),
	}
	assert.Error(t, ValidateStruct(&req))
}

func TestValidateStruct_UpdateVehiclePositionRequest_Valid(t *testing.T) {
	req := UpdateVehiclePositionRequest{VehicleID: "V1", Latitude: 37.7749, Longitude: -122.4194}
	assert.NoError(t, ValidateStruct(&req))
}

func TestValidateStruct_UpdateVehiclePositionRequest_InvalidLatitude(t *testing.T) {
	req := UpdateVehiclePositionRequest{VehicleID: "V1", Latitude: 200, Longitude: -122.4194}
	assert.Error(t, ValidateStruct(&req))
}

func TestValidateStruct_PaginationRequest_Valid(t *testing.T) {
	req := PaginationRequest{Limit: 20, Offset: 0, SortDir: "asc"}
	assert.NoError(t, ValidateStruct(&req))
}

func TestValidateStruct_PaginationRequest_InvalidSortDir(t *testing.T) {
	req := PaginationRequest{SortDir: "sideways"}
	assert.Error(t, ValidateStruct(&req))
}

func TestValidateStruct_PaginationRequest_LimitTooLarge(t *testing.T) {
	req := PaginationRequest{Limit: 1000}
	assert.Error(t, ValidateStruct(&req))
}

func TestContains(t *testing.T) {
	slice := []string{"Open", "Closed"}
	assert.True(t, contains(slice, "open"))
	assert.True(t, contains(slice, " CLOSED "))
	assert.False(t, contains(slice, "half-open"))
}
