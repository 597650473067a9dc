// Package audit turns row changes into tracking entries.
package audit

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gdg-garage/con-registration-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Untracked lists the tables that never produce tracking rows.
var Untracked = []string{"tracking", "emails"}

const redacted = "<bcrypted>"

// Snapshot holds detached column values keyed by column name.
type Snapshot map[string]any

// Change is one column whose value differs from its snapshot.
type Change struct {
	Column string
	Old    string
	New    string
}

type Tracker struct {
	db  *gorm.DB
	Now func() time.Time
}

func New(db *gorm.DB) *Tracker {
	return &Tracker{db: db, Now: time.Now}
}

func (t *Tracker) schema(m any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: t.db}
	if err := stmt.Parse(m); err != nil {
		return nil, fmt.Errorf("parse %T: %w", m, err)
	}
	return stmt.Schema, nil
}

func columns(sch *schema.Schema) []*schema.Field {
	var fields []*schema.Field
	for _, f := range sch.Fields {
		if f.DBName != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Snapshot copies every column value of m.
func (t *Tracker) Snapshot(ctx context.Context, m any) (Snapshot, error) {
	sch, err := t.schema(m)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(m)
	snap := make(Snapshot, len(sch.DBNames))
	for _, f := range columns(sch) {
		v, _ := f.ValueOf(ctx, rv)
		snap[f.DBName] = detach(v)
	}
	return snap, nil
}

// detach dereferences pointers and copies slices so later writes to the row
// do not leak into the snapshot.
func detach(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return detach(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(cp, rv)
		return cp.Interface()
	}
	return v
}

// Same compares two detached values.
func Same(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

// Changed reports whether any column differs from orig.
func (s Snapshot) Changed(cur Snapshot) bool {
	for k, v := range cur {
		if !Same(s[k], v) {
			return true
		}
	}
	return false
}

type multiChoice interface {
	Display() (string, error)
}

type choice interface {
	Valid() error
	fmt.Stringer
}

// Repr renders a detached column value for the audit log.
func Repr(column string, v any) (string, error) {
	if column == "hashed" {
		return redacted, nil
	}
	switch val := v.(type) {
	case nil:
		return "null", nil
	case multiChoice:
		labels, err := val.Display()
		if err != nil {
			return "", fmt.Errorf("error formatting %s (%q): %w", column, fmt.Sprint(v), err)
		}
		return strconv.Quote(labels), nil
	case choice:
		return strconv.Quote(val.String()), nil
	case string:
		return strconv.Quote(val), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339), nil
	case fmt.Stringer:
		return strconv.Quote(val.String()), nil
	}
	return fmt.Sprint(v), nil
}

// Differences lists changed columns in declaration order.
func (t *Tracker) Differences(ctx context.Context, m any, orig Snapshot) ([]Change, error) {
	sch, err := t.schema(m)
	if err != nil {
		return nil, err
	}
	cur, err := t.Snapshot(ctx, m)
	if err != nil {
		return nil, err
	}
	var changes []Change
	for _, f := range columns(sch) {
		oldVal, newVal := orig[f.DBName], cur[f.DBName]
		if Same(oldVal, newVal) {
			continue
		}
		o, err := Repr(f.DBName, oldVal)
		if err != nil {
			return nil, err
		}
		n, err := Repr(f.DBName, newVal)
		if err != nil {
			return nil, err
		}
		changes = append(changes, Change{Column: f.DBName, Old: o, New: n})
	}
	return changes, nil
}

func formatChanges(changes []Change) string {
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = fmt.Sprintf("%s='%s -> %s'", c.Column, c.Old, c.New)
	}
	return strings.Join(parts, ", ")
}

func (t *Tracker) values(ctx context.Context, sch *schema.Schema, m any) (string, error) {
	rv := reflect.ValueOf(m)
	var parts []string
	for _, f := range columns(sch) {
		v, _ := f.ValueOf(ctx, rv)
		s, err := Repr(f.DBName, detach(v))
		if err != nil {
			return "", err
		}
		parts = append(parts, f.DBName+"="+s)
	}
	return strings.Join(parts, ", "), nil
}

// Links renders every non-empty column tagged with link:"<table>".
func (t *Tracker) links(ctx context.Context, sch *schema.Schema, m any) string {
	rv := reflect.ValueOf(m)
	var parts []string
	for _, f := range columns(sch) {
		table := f.Tag.Get("link")
		if table == "" {
			continue
		}
		v, _ := f.ValueOf(ctx, rv)
		v = detach(v)
		if v == nil || v == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%v)", table, v))
	}
	return strings.Join(parts, ", ")
}

func Tracked(m models.Model) bool {
	return !slices.Contains(Untracked, m.TableName())
}

// Track builds the entry for one row. It returns nil when nothing should be
// logged: untracked tables and updates that changed nothing.
func (t *Tracker) Track(ctx context.Context, action models.Action, m models.Model, orig Snapshot, who string) (*models.Tracking, error) {
	if !Tracked(m) {
		return nil, nil
	}
	sch, err := t.schema(m)
	if err != nil {
		return nil, err
	}

	var data string
	switch action {
	case models.ActionCreated:
		if data, err = t.values(ctx, sch, m); err != nil {
			return nil, err
		}
	case models.ActionUpdated:
		changes, err := t.Differences(ctx, m, orig)
		if err != nil {
			return nil, err
		}
		if len(changes) == 0 {
			return nil, nil
		}
		if len(changes) == 1 && changes[0].Column == "badge_num" {
			action = models.ActionAutoBadgeShift
		}
		data = formatChanges(changes)
	default:
		data = "id=" + m.GetID()
	}

	return &models.Tracking{
		FKID:   m.GetID(),
		Model:  sch.Name,
		When:   t.Now().UTC(),
		Who:    who,
		Which:  fmt.Sprint(m),
		Links:  t.links(ctx, sch, m),
		Action: action,
		Data:   data,
	}, nil
}
