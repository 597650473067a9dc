package session

import (
	"context"
	"strconv"
	"strings"

	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var searchColumns = []string{
	"attendees.first_name",
	"attendees.last_name",
	"attendees.badge_printed_name",
	"attendees.email",
	"attendees.comments",
	"attendees.admin_notes",
	"attendees.for_review",
}

func joinGroups(db *gorm.DB) *gorm.DB {
	return db.Select("attendees.*").
		Joins("LEFT JOIN groups ON groups.id = attendees.group_id").
		Order("attendees.last_name, attendees.first_name")
}

func contains(column, term string) Scope {
	return Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(term)+"%")
}

// Search understands these forms:
//
//	email:<term>    substring of the email address
//	group:<term>    substring of the group name
//	First Last      substrings of the first and last name
//	Last, First     same, reversed
//	Last,           substring of the last name
//	<digits>        badge number
//	<uuid>          attendee or group id
//
// Anything else is a case-insensitive substring match across names, email,
// notes and the group name.
func (s *Session) Search(ctx context.Context, text string, scopes ...Scope) ([]*models.Attendee, error) {
	return Find[models.Attendee](ctx, s, append([]Scope{joinGroups, searchScope(text)}, scopes...)...)
}

func searchScope(text string) Scope {
	text = strings.TrimSpace(text)
	if target, term, ok := strings.Cut(text, ":"); ok {
		term = strings.TrimSpace(term)
		switch strings.ToLower(strings.TrimSpace(target)) {
		case "email":
			return contains("attendees.email", term)
		case "group":
			return contains("groups.name", term)
		}
	}

	terms := strings.Fields(text)
	if len(terms) == 2 {
		first, last := terms[0], terms[1]
		if strings.HasSuffix(first, ",") {
			first, last = last, strings.TrimSuffix(first, ",")
		}
		return func(db *gorm.DB) *gorm.DB {
			return contains("attendees.last_name", last)(contains("attendees.first_name", first)(db))
		}
	}
	if len(terms) == 1 {
		term := terms[0]
		if strings.HasSuffix(term, ",") {
			return contains("attendees.last_name", strings.TrimSuffix(term, ","))
		}
		if n, err := strconv.Atoi(term); err == nil && n >= 0 {
			return Where("attendees.badge_num = ?", n)
		}
		if id, err := uuid.Parse(term); err == nil {
			return Where("attendees.id = ? OR groups.id = ?", id.String(), id.String())
		}
	}

	return func(db *gorm.DB) *gorm.DB {
		like := "%" + strings.ToLower(text) + "%"
		cond := db.Session(&gorm.Session{NewDB: true}).Where("LOWER(groups.name) LIKE ?", like)
		for _, col := range searchColumns {
			cond = cond.Or("LOWER("+col+") LIKE ?", like)
		}
		return db.Where(cond)
	}
}
