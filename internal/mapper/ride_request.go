package mapper

import (
	"ridesharing/internal/dto"
	"ridesharing/internal/models"
)

// RideRequestMapper maps ride requests and their ride reference.
type RideRequestMapper struct{}

func (RideRequestMapper) ToDTO(r models.RideRequest) dto.RideRequestDTO {
	return dto.RideRequestDTO{
		ID:          ptr(r.ID),
		Status:      ptr(r.Status),
		RequestTime: ptr(r.RequestTime),
		Ride:        toRef(r.RideID),
	}
}

func (RideRequestMapper) ToRecord(d dto.RideRequestDTO) models.RideRequest {
	return models.RideRequest{
		ID:          deref(d.ID),
		Status:      deref(d.Status),
		RequestTime: deref(d.RequestTime),
		RideID:      fromRef(d.Ride),
	}
}

func (RideRequestMapper) ApplyNonNull(d dto.RideRequestDTO, r *models.RideRequest) {
	if d.Status != nil {
		r.Status = *d.Status
	}
	if d.RequestTime != nil {
		r.RequestTime = *d.RequestTime
	}
	if d.Ride != nil {
		r.RideID = fromRef(d.Ride)
	}
}
