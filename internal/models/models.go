package models

// All returns one zero value of every persisted record, in foreign key order.
func All() []interface{} {
	return []interface{}{
		&Member{},
		&Profile{},
		&Ride{},
		&RideRequest{},
		&Notification{},
		&Message{},
		&Rating{},
	}
}
