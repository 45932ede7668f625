package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/notifyhq/notify-service/internal/domain"
)

// metadataJSON persists the opaque metadata map as a jsonb column.
type metadataJSON map[string]string

func (m metadataJSON) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(payload), nil
}

func (m *metadataJSON) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}

	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

type NotificationModel struct {
	ID         string        `gorm:"type:uuid;primaryKey"`
	UserID     string        `gorm:"type:uuid;not null"`
	Type       domain.Type   `gorm:"type:varchar(10);not null"`
	Title      string        `gorm:"type:varchar(255);not null"`
	Message    string        `gorm:"type:text;not null"`
	Metadata   metadataJSON  `gorm:"type:jsonb"`
	Status     domain.Status `gorm:"type:varchar(20);not null"`
	RetryCount int           `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (NotificationModel) TableName() string { return "notifications" }

type UserModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"type:varchar(255);not null"`
	Email     string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone     string `gorm:"type:varchar(32)"`
	PrefEmail bool   `gorm:"not null;default:true"`
	PrefSMS   bool   `gorm:"not null;default:false"`
	PrefInApp bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string { return "users" }

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}
	return &NotificationModel{
		ID:         n.ID,
		UserID:     n.UserID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		Metadata:   metadataJSON(n.Metadata),
		Status:     n.Status,
		RetryCount: n.RetryCount,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}
	return &domain.Notification{
		ID:         m.ID,
		UserID:     m.UserID,
		Type:       m.Type,
		Title:      m.Title,
		Message:    m.Message,
		Metadata:   domain.Metadata(m.Metadata),
		Status:     m.Status,
		RetryCount: m.RetryCount,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func userModelFromDomain(u *domain.User) *UserModel {
	if u == nil {
		return nil
	}
	return &UserModel{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		PrefEmail: u.Preferences.Email,
		PrefSMS:   u.Preferences.SMS,
		PrefInApp: u.Preferences.InApp,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func userModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:    m.ID,
		Name:  m.Name,
		Email: m.Email,
		Phone: m.Phone,
		Preferences: domain.ChannelPreferences{
			Email: m.PrefEmail,
			SMS:   m.PrefSMS,
			InApp: m.PrefInApp,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
