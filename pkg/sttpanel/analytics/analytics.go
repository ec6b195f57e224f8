package analytics

import (
	"time"

	"github.com/synstt/sttpanel/pkg/sttpanel/models"
	"gorm.io/gorm"
)

// Report is the aggregate usage summary shown on the dashboard.
// The request/duration/status numbers honor the date range; the
// activeUsers and totalApiKeys gauges are global and unwindowed.
type Report struct {
	TotalRequests        int64            `json:"total_requests"`
	TotalDurationSeconds float64          `json:"total_duration_seconds"`
	ActiveUsers          int64            `json:"active_users"`
	TotalAPIKeys         int64            `json:"total_api_keys"`
	TasksByStatus        map[string]int64 `json:"tasks_by_status"`
	TopUsers             []TopUser        `json:"top_users"`
}

// TopUser is one row of the top-users ranking
type TopUser struct {
	ID            string  `json:"id"`
	CompanyName   *string `json:"company_name"`
	RequestCount  int64   `json:"request_count"`
	TotalDuration float64 `json:"total_duration"`
}

const topUsersLimit = 5

// Compute aggregates the usage ledger, optionally bounded by an
// inclusive date range over task creation time. Both bounds nil means
// all time. Tasks of soft-deleted users stay counted in the windowed
// totals; only the top-users ranking is restricted to live users and
// keys.
func Compute(db *gorm.DB, from, to *time.Time) (*Report, error) {
	report := &Report{
		TasksByStatus: map[string]int64{},
		TopUsers:      []TopUser{},
	}

	tasksInRange := func(tx *gorm.DB) *gorm.DB {
		if from != nil {
			tx = tx.Where("transcription_tasks.created_at >= ?", *from)
		}
		if to != nil {
			tx = tx.Where("transcription_tasks.created_at <= ?", *to)
		}
		return tx
	}

	if err := tasksInRange(db.Model(&models.TranscriptionTask{})).
		Count(&report.TotalRequests).Error; err != nil {
		return nil, err
	}

	// SQL SUM skips NULL durations; COALESCE covers the empty range
	if err := tasksInRange(db.Model(&models.TranscriptionTask{})).
		Select("COALESCE(SUM(duration_seconds), 0)").
		Scan(&report.TotalDurationSeconds).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.User{}).
		Where("is_active = ?", true).
		Count(&report.ActiveUsers).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.APIKey{}).
		Count(&report.TotalAPIKeys).Error; err != nil {
		return nil, err
	}

	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := tasksInRange(db.Model(&models.TranscriptionTask{})).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, err
	}
	for _, row := range statusRows {
		report.TasksByStatus[row.Status] = row.Count
	}

	// Ties in request count break deterministically by user id
	if err := tasksInRange(db.Model(&models.TranscriptionTask{})).
		Select(`users.id,
			users.company_name,
			COUNT(transcription_tasks.id) AS request_count,
			COALESCE(SUM(transcription_tasks.duration_seconds), 0) AS total_duration`).
		Joins("JOIN api_keys ON api_keys.id = transcription_tasks.api_key_id AND api_keys.deleted_at IS NULL").
		Joins("JOIN users ON users.id = api_keys.user_id AND users.deleted_at IS NULL").
		Group("users.id, users.company_name").
		Order("request_count DESC, users.id ASC").
		Limit(topUsersLimit).
		Scan(&report.TopUsers).Error; err != nil {
		return nil, err
	}

	return report, nil
}
