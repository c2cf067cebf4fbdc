package notification

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error

	// CreateBatch inserts one row per notification; used for role fan-out.
	CreateBatch(ctx context.Context, ns []*Notification) error

	// ListByUser returns the owner's notifications, newest first, with the owner's total.
	ListByUser(ctx context.Context, q ListQuery) ([]*Notification, int64, error)

	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	// MarkRead scopes the lookup by both id and owner, so a notification that
	// belongs to someone else is indistinguishable from one that does not exist.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error)

	// MarkAllRead returns the number of rows transitioned.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}
