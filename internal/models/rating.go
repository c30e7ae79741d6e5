package models

// Rating is a score one Member gives another. Score is bounded by validation only.
type Rating struct {
	ID         int64   `gorm:"primaryKey;autoIncrement" csv:"id"`
	Score      int     `gorm:"not null" csv:"score"`
	Feedback   *string `gorm:"type:varchar(255)" csv:"feedback,omitempty"`
	GiverID    *int64  `gorm:"index" csv:"giver_id,omitempty"`
	ReceiverID *int64  `gorm:"index" csv:"receiver_id,omitempty"`
}

func (Rating) TableName() string {
	return "rating"
}
