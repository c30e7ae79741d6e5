package models

// Member is the acting user of the platform and the owner of most other records.
type Member struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" csv:"id"`
	Login        string  `gorm:"uniqueIndex;type:varchar(50);not null" csv:"login"`
	PasswordHash string  `gorm:"type:varchar(60)" csv:"password_hash"`
	Email        *string `gorm:"uniqueIndex;type:varchar(254)" csv:"email,omitempty"`
	Activated    bool    `gorm:"not null;default:false" csv:"activated"`
}

func (Member) TableName() string {
	return "member"
}
