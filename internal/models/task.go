package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID          string         `gorm:"type:varchar(36);primarykey" json:"id"`
	OwnerID     string         `gorm:"type:varchar(255);not null" json:"owner_id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Label       *Label         `gorm:"type:varchar(20);check:chk_tasks_label,label IN ('work','personal','priority','shopping','home')" json:"label,omitempty"`
	DueDate     *time.Time     `json:"due_date"`
	Completed   bool           `gorm:"not null;default:false" json:"completed"`
	ImageURL    *string        `gorm:"type:varchar(2048)" json:"image_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a random identifier to tasks that don't have one yet
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
