package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Type string

const (
	TypePatientRegistered Type = "patient_registered"
	TypeReportAssigned    Type = "report_assigned"
	// TypePasswordReset has no emitter; admin resets are a direct mutation.
	TypePasswordReset Type = "password_reset"
	TypeGeneral       Type = "general"
)

func (t Type) IsValid() bool {
	switch t {
	case TypePatientRegistered, TypeReportAssigned, TypePasswordReset, TypeGeneral:
		return true
	}
	return false
}

// Notification belongs to exactly one recipient. The only mutation is the
// Unread -> Read transition.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_notifications_inbox,priority:3" json:"createdAt"`

	UserID   uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:idx_notifications_inbox,priority:1" json:"userId"`
	Message  string            `gorm:"column:message;type:text;not null" json:"message"`
	Type     Type              `gorm:"column:type;type:varchar(30);not null" json:"type"`
	Metadata datatypes.JSONMap `gorm:"column:metadata" json:"metadata"`
	IsRead   bool              `gorm:"column:is_read;not null;default:false;index:idx_notifications_inbox,priority:2" json:"isRead"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Metadata == nil {
		n.Metadata = datatypes.JSONMap{}
	}
	return nil
}

// maxPage keeps Offset well inside int range for any accepted Limit.
const maxPage = 100_000

type ListQuery struct {
	UserID uuid.UUID
	Page   int
	Limit  int
}

func (q *ListQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Page > maxPage {
		q.Page = maxPage
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
}

func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Page struct {
	Notifications []*Notification `json:"notifications"`
	CurrentPage   int             `json:"currentPage"`
	TotalPages    int             `json:"totalPages"`
	Total         int64           `json:"total"`
}

// NewPage computes the page count the same way for every caller.
func NewPage(items []*Notification, q ListQuery, total int64) *Page {
	pages := 0
	if q.Limit > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	if items == nil {
		items = []*Notification{}
	}
	return &Page{Notifications: items, CurrentPage: q.Page, TotalPages: pages, Total: total}
}
