package models

import "time"

// User represents an account that can publish and rate recipes.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:15;not null" json:"first_name"`
	LastName  string    `gorm:"size:20;not null" json:"last_name"`
	Email     string    `gorm:"size:30;not null" json:"email"`
	Username  string    `gorm:"size:15;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
