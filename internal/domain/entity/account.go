package entity

import (
	"time"
)

// Account is a registered user. Email is stored normalized (trimmed, lowercase).
type Account struct {
	ID           string    `gorm:"type:uuid;primaryKey" bson:"_id" json:"id"`
	FullName     string    `gorm:"type:text;not null" bson:"full_name" json:"fullName"`
	Email        string    `gorm:"type:text;uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string    `gorm:"type:text;not null" bson:"password_hash" json:"passwordHash"`
	CreatedAt    time.Time `gorm:"not null" bson:"created_at" json:"createdAt"`
}

func (Account) TableName() string {
	return "accounts"
}
