package mapper

import (
	"ridesharing/internal/dto"
	"ridesharing/internal/models"
)

// RideMapper maps rides and their member reference.
type RideMapper struct{}

func (RideMapper) ToDTO(r models.Ride) dto.RideDTO {
	return dto.RideDTO{
		ID:            ptr(r.ID),
		StartLocation: ptr(r.StartLocation),
		EndLocation:   ptr(r.EndLocation),
		StartTime:     ptr(r.StartTime),
		EndTime:       copyPtr(r.EndTime),
		Recurring:     copyPtr(r.Recurring),
		Member:        toRef(r.MemberID),
	}
}

func (RideMapper) ToRecord(d dto.RideDTO) models.Ride {
	return models.Ride{
		ID:            deref(d.ID),
		StartLocation: deref(d.StartLocation),
		EndLocation:   deref(d.EndLocation),
		StartTime:     deref(d.StartTime),
		EndTime:       copyPtr(d.EndTime),
		Recurring:     copyPtr(d.Recurring),
		MemberID:      fromRef(d.Member),
	}
}

func (RideMapper) ApplyNonNull(d dto.RideDTO, r *models.Ride) {
	if d.StartLocation != nil {
		r.StartLocation = *d.StartLocation
	}
	if d.EndLocation != nil {
		r.EndLocation = *d.EndLocation
	}
	if d.StartTime != nil {
		r.StartTime = *d.StartTime
	}
	if d.EndTime != nil {
		r.EndTime = copyPtr(d.EndTime)
	}
	if d.Recurring != nil {
		r.Recurring = copyPtr(d.Recurring)
	}
	if d.Member != nil {
		r.MemberID = fromRef(d.Member)
	}
}
