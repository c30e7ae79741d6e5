package models

// Profile holds the personal details of a Member. There is at most one per member.
type Profile struct {
	ID               int64   `gorm:"primaryKey;autoIncrement" csv:"id"`
	FirstName        *string `gorm:"type:varchar(255)" csv:"first_name,omitempty"`
	LastName         *string `gorm:"type:varchar(255)" csv:"last_name,omitempty"`
	Photo            []byte  `csv:"-"`
	PhotoContentType *string `gorm:"type:varchar(255)" csv:"photo_content_type,omitempty"`
	ContactDetails   *string `gorm:"type:varchar(255)" csv:"contact_details,omitempty"`
	MemberID         *int64  `gorm:"uniqueIndex" csv:"member_id,omitempty"`
}

func (Profile) TableName() string {
	return "profile"
}
