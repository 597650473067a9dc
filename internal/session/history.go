package session

import (
	"context"
	"fmt"

	"github.com/gdg-garage/con-registration-api/internal/models"
	"gorm.io/gorm/clause"
)

// History returns the audit trail of one row, oldest first. Tracking rows are
// immutable so they bypass the identity map.
func (s *Session) History(ctx context.Context, fkID string) ([]models.Tracking, error) {
	var entries []models.Tracking
	err := s.db.WithContext(ctx).
		Where("fk_id = ?", fkID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "when"}}).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", fkID, err)
	}
	return entries, nil
}

// Emails lists the outbound messages recorded for a row.
func (s *Session) Emails(ctx context.Context, fkID string) ([]models.Email, error) {
	var emails []models.Email
	err := s.db.WithContext(ctx).
		Where("fk_id = ?", fkID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "when"}}).
		Find(&emails).Error
	if err != nil {
		return nil, fmt.Errorf("emails of %s: %w", fkID, err)
	}
	return emails, nil
}
