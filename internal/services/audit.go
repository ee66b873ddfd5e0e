package services

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/auth"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// AuditService appends to the audit trail. Writes are best effort: a failed
// audit insert is logged and swallowed, it never fails the business operation
// that triggered it.
type AuditService struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewAuditService(db *gorm.DB, log *logrus.Logger) *AuditService {
	return &AuditService{DB: db, Log: log}
}

// Record appends one audit row for the acting user. Details are serialized
// to JSON; a nil map writes an empty details column.
func (s *AuditService) Record(ctx context.Context, section string, action models.AuditAction, entity string, entityID uint, details map[string]any) {
	actor, _ := auth.ActorFrom(ctx)
	row := models.AuditLog{
		Section: section,
		Action:  action,
		Entity:  entity,
	}
	if actor != nil {
		row.Username = actor.Username
		row.IPAddress = actor.IP
	}
	if entityID != 0 {
		row.EntityID = &entityID
	}
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			row.Details = string(b)
		}
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		s.Log.WithFields(logrus.Fields{
			"section": section,
			"action":  action,
			"entity":  entity,
		}).WithError(err).Warn("audit write failed")
	}
}

// ListInput filters the audit trail.
type ListAuditInput struct {
	Section string
	Entity  string
	Limit   int
}

func (s *AuditService) List(ctx context.Context, in ListAuditInput) ([]models.AuditLog, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	limit := in.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.DB.WithContext(ctx).Model(&models.AuditLog{})
	if in.Section != "" {
		q = q.Where("section = ?", in.Section)
	}
	if in.Entity != "" {
		q = q.Where("entity = ?", in.Entity)
	}
	var rows []models.AuditLog
	if err := q.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
