package models

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrMultipleFound = errors.New("multiple records found")
)

// Base carries the identity shared by every session-managed row.
type Base struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	persisted bool
}

func NewID() string {
	return uuid.NewString()
}

func (b *Base) GetID() string {
	return b.ID
}

// IsNew reports whether the row has never been written.
func (b *Base) IsNew() bool {
	return !b.persisted
}

func (b *Base) MarkPersisted() {
	b.persisted = true
}

// EnsureID assigns an id once; later calls keep it.
func (b *Base) EnsureID() string {
	if b.ID == "" {
		b.ID = NewID()
	}
	return b.ID
}

// Equal holds only between two persisted rows with the same id.
func (b *Base) Equal(o Model) bool {
	if o == nil || b.IsNew() || o.IsNew() {
		return false
	}
	return b.ID != "" && b.ID == o.GetID()
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}

func (b *Base) AfterFind(tx *gorm.DB) error {
	b.persisted = true
	return nil
}

func (b *Base) PresaveAdjustments(ctx context.Context, tx Tx) error {
	return nil
}

func (b *Base) OnDelete(ctx context.Context, tx Tx) error {
	return nil
}

// Model is a row managed by a unit of work.
type Model interface {
	GetID() string
	EnsureID() string
	IsNew() bool
	MarkPersisted()
	Equal(o Model) bool
	TableName() string

	// PresaveAdjustments runs once per new or dirty row before it is written.
	PresaveAdjustments(ctx context.Context, tx Tx) error
	// OnDelete runs once per deleted row while its relations are still intact.
	OnDelete(ctx context.Context, tx Tx) error
}

// Direction of a badge shift.
type Direction int

const (
	Down Direction = -1
	Up   Direction = 1
)

// Tx is the view of the running unit of work handed to entity hooks.
type Tx interface {
	Policy() *Policy
	OrigValueOf(m Model, column string) (any, error)

	NextBadgeNum(ctx context.Context, t BadgeType, old int) (int, error)
	ShiftBadges(ctx context.Context, t BadgeType, from, until int, dir Direction) error

	Group(ctx context.Context, id string) (*Group, error)
	GroupMembers(ctx context.Context, groupID string) ([]*Attendee, error)
	AttendeeShifts(ctx context.Context, attendeeID string) ([]*Shift, error)
	JobShifts(ctx context.Context, jobID string) ([]*Shift, error)
	Details(ctx context.Context, attendeeID string) ([]Model, error)

	Delete(m Model)
}

// origValue returns the committed value of column, falling back to cur.
func origValue[T any](tx Tx, m Model, column string, cur T) T {
	v, err := tx.OrigValueOf(m, column)
	if err != nil {
		return cur
	}
	if t, ok := v.(T); ok {
		return t
	}
	return cur
}
