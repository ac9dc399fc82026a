package services

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"

	"prism/internal/logger"
	"prism/internal/models"
)

// redactedKeys never reach the audit table, whatever a caller passes.
var redactedKeys = []string{"password", "token", "refresh", "secret"}

type auditService struct {
	db *gorm.DB
}

// NewAuditService returns an AuditServicer writing to the audit_logs table.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log is best-effort: failures are logged and the caller's request carries on.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	log := logger.Get().With("user_id", userID, "action", action, "resource_type", resourceType, "resource_id", resourceID)
	if userID == "" {
		log.Warn("audit entry without acting user dropped")
		return
	}

	entry := models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}
	if len(changes) > 0 {
		data, err := json.Marshal(redact(changes))
		if err != nil {
			log.Errorw("audit changes not serializable", "error", err)
			data = []byte("{}")
		}
		entry.Changes = string(data)
	}

	if err := s.db.Create(&entry).Error; err != nil {
		log.Errorw("failed to write audit entry", "error", err)
	}
}

func redact(changes map[string]any) map[string]any {
	out := make(map[string]any, len(changes))
	for k, v := range changes {
		lower := strings.ToLower(k)
		for _, key := range redactedKeys {
			if strings.Contains(lower, key) {
				v = "[redacted]"
				break
			}
		}
		out[k] = v
	}
	return out
}
