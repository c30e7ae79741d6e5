// Package entities describes every resource exposed through the generic CRUD
// stack: its name, REST path, sortable properties and ownership column.
package entities

// Definition parametrizes the generic repository, service and handler for one entity.
type Definition struct {
	// Name is the singular entity name used in alerts and errors.
	Name string
	// Plural is the path segment under /api.
	Plural string
	// Sortable maps a transfer object property to its column.
	Sortable map[string]string
	// OwnerColumn holds the owning member id; empty when the entity has no owner.
	OwnerColumn string
	// Paginated entities answer page/size requests with X-Total-Count and Link headers.
	Paginated bool
}

// Column resolves a sortable property to its column.
func (d Definition) Column(property string) (string, bool) {
	col, ok := d.Sortable[property]
	return col, ok
}

// Owned reports whether records can be filtered by their owning member.
func (d Definition) Owned() bool {
	return d.OwnerColumn != ""
}

var (
	Member = Definition{
		Name:   "member",
		Plural: "members",
		Sortable: map[string]string{
			"id":        "id",
			"login":     "login",
			"email":     "email",
			"activated": "activated",
		},
		OwnerColumn: "id",
	}

	Profile = Definition{
		Name:   "profile",
		Plural: "profiles",
		Sortable: map[string]string{
			"id":             "id",
			"firstName":      "first_name",
			"lastName":       "last_name",
			"contactDetails": "contact_details",
		},
		OwnerColumn: "member_id",
	}

	Ride = Definition{
		Name:   "ride",
		Plural: "rides",
		Sortable: map[string]string{
			"id":            "id",
			"startLocation": "start_location",
			"endLocation":   "end_location",
			"startTime":     "start_time",
			"endTime":       "end_time",
			"recurring":     "recurring",
		},
		OwnerColumn: "member_id",
	}

	RideRequest = Definition{
		Name:   "rideRequest",
		Plural: "ride-requests",
		Sortable: map[string]string{
			"id":          "id",
			"status":      "status",
			"requestTime": "request_time",
		},
		Paginated: true,
	}

	Notification = Definition{
		Name:   "notification",
		Plural: "notifications",
		Sortable: map[string]string{
			"id":        "id",
			"message":   "message",
			"timestamp": "timestamp",
			"read":      "is_read",
		},
		OwnerColumn: "member_id",
		Paginated:   true,
	}

	Message = Definition{
		Name:   "message",
		Plural: "messages",
		Sortable: map[string]string{
			"id":        "id",
			"content":   "content",
			"timestamp": "timestamp",
		},
	}

	Rating = Definition{
		Name:   "rating",
		Plural: "ratings",
		Sortable: map[string]string{
			"id":       "id",
			"score":    "score",
			"feedback": "feedback",
		},
		OwnerColumn: "giver_id",
	}
)
