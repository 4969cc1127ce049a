package services

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/edjs-platform/edjs/internal/models"
)

// Actor identifies who performs an administrative mutation and from where.
type Actor struct {
	UserID    uint
	Role      models.Role
	IPAddress string
	UserAgent string
}

type AuditLogRepository interface {
	Create(entry *models.AuditLog) error
	ListRecent(limit int) ([]models.AuditLog, error)
}

type AuditService struct {
	entries AuditLogRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuditService(entries AuditLogRepository, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{entries: entries, logger: logger, now: time.Now}
}

func (service *AuditService) Record(actor Actor, action string, table string, recordID uint, newValues any) error {
	encoded := ""
	if newValues != nil {
		raw, err := json.Marshal(newValues)
		if err != nil {
			return err
		}
		encoded = string(raw)
	}

	entry := models.AuditLog{
		Action:    action,
		TableName: table,
		RecordID:  strconv.FormatUint(uint64(recordID), 10),
		NewValues: encoded,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		CreatedAt: service.now().UTC(),
	}
	if actor.UserID != 0 {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if err := service.entries.Create(&entry); err != nil {
		return err
	}

	service.logger.Info("audit", "action", action, "table", table, "record_id", entry.RecordID, "actor", actor.UserID)
	return nil
}

func (service *AuditService) Recent(limit int) ([]models.AuditLog, error) {
	return service.entries.ListRecent(limit)
}
