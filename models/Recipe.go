package models

import "time"

// Recipe is owned by the user that created it. RSum and RCount only ever
// grow, and Rating is always recomputable from them.
type Recipe struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:30;uniqueIndex;not null" json:"name"`
	Text      string    `gorm:"size:500;not null" json:"text"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	RSum      int       `gorm:"column:r_sum;not null;default:0;check:chk_recipes_r_sum,r_sum >= 0" json:"r_sum"`
	RCount    int       `gorm:"column:r_count;not null;default:0;check:chk_recipes_r_count,r_count >= 0" json:"r_count"`
	Rating    float64   `gorm:"not null;default:0" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}
