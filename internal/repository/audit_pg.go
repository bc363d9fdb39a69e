package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/clera-dev/clera-gateway/internal/model"
)

// auditRow flattens the audit context map to JSON for storage.
type auditRow struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"index"`
	Method       string
	Path         string `gorm:"index"`
	IP           string
	UserAgent    string
	RequestBody  string
	StatusCode   int
	ResponseBody string
	LatencyMs    int64
	Context      string
	CreatedAt    time.Time `gorm:"index"`
}

func (auditRow) TableName() string { return "audit_logs" }

type PostgresAuditRepo struct {
	db *gorm.DB
}

func NewPostgresAuditRepo(db *gorm.DB) *PostgresAuditRepo {
	return &PostgresAuditRepo{db: db}
}

func (r *PostgresAuditRepo) Insert(ctx context.Context, entry *model.AuditLog) error {
	ctxJSON, _ := json.Marshal(entry.Context)
	row := auditRow{
		ID:           entry.ID,
		UserID:       entry.UserID,
		Method:       entry.Method,
		Path:         entry.Path,
		IP:           entry.IP,
		UserAgent:    entry.UserAgent,
		RequestBody:  entry.RequestBody,
		StatusCode:   entry.StatusCode,
		ResponseBody: entry.ResponseBody,
		LatencyMs:    entry.LatencyMs,
		Context:      string(ctxJSON),
		CreatedAt:    entry.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *PostgresAuditRepo) List(ctx context.Context, userID string, limit int, from, to *time.Time) ([]*model.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Model(&auditRow{}).Order("created_at DESC").Limit(limit)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}

	var rows []auditRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]*model.AuditLog, 0, len(rows))
	for _, row := range rows {
		entry := &model.AuditLog{
			ID:           row.ID,
			UserID:       row.UserID,
			Method:       row.Method,
			Path:         row.Path,
			IP:           row.IP,
			UserAgent:    row.UserAgent,
			RequestBody:  row.RequestBody,
			StatusCode:   row.StatusCode,
			ResponseBody: row.ResponseBody,
			LatencyMs:    row.LatencyMs,
			CreatedAt:    row.CreatedAt,
		}
		if row.Context != "" {
			_ = json.Unmarshal([]byte(row.Context), &entry.Context)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
