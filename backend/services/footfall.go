package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"mentor/backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ActiveVisitorWindow = 5 * time.Minute
	SessionIdleTTL      = time.Hour
	footfallHistoryDays = 7
	dateLayout          = "2006-01-02"
)

var ErrMissingVisitFields = errors.New("session_id and page are required")

// MentorCategoryForPath maps a front-end route to its mentor category, or ""
// when the page is not part of any vertical.
func MentorCategoryForPath(path string) string {
	switch {
	case containsAny(path, "/mentor/tech", "/interview", "/exam", "/resume", "/coding-playground"):
		return models.CategoryTech
	case containsAny(path, "/mentor/finance", "/finance/"):
		return models.CategoryFinance
	case containsAny(path, "/mentor/health", "/health/"):
		return models.CategoryHealth
	case containsAny(path, "/mentor/education", "/education/"):
		return models.CategoryEducation
	}
	return ""
}

// IsMentorCategory reports whether category is one of the mentor verticals.
func IsMentorCategory(category string) bool {
	switch category {
	case models.CategoryTech, models.CategoryFinance, models.CategoryHealth, models.CategoryEducation:
		return true
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type Visit struct {
	SessionID      string
	Page           string
	MentorCategory string
	UserID         *uint
}

type FootfallSnapshot struct {
	ActiveVisitors   int64                   `json:"active_visitors"`
	DailyFootfall    []models.DailyFootfall  `json:"daily_footfall"`
	MentorFootfall   []models.MentorFootfall `json:"mentor_footfall"`
	LifetimeVisitors int64                   `json:"lifetime_visitors"`
	Today            *models.DailyFootfall   `json:"today"`
}

// FootfallTracker records page visits and maintains the footfall aggregates.
type FootfallTracker struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewFootfallTracker(db *gorm.DB, logger *zap.Logger) *FootfallTracker {
	return &FootfallTracker{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Track records one page view (or heartbeat) and returns the current number
// of active visitors. Session and visit write failures are logged and do not
// abort the aggregate updates.
func (t *FootfallTracker) Track(ctx context.Context, v Visit) (int64, error) {
	if strings.TrimSpace(v.SessionID) == "" || strings.TrimSpace(v.Page) == "" {
		return 0, ErrMissingVisitFields
	}
	if !IsMentorCategory(v.MentorCategory) {
		v.MentorCategory = MentorCategoryForPath(v.Page)
	}

	db := t.db.WithContext(ctx)
	now := t.now()
	log := t.logger.With(zap.String("session_id", v.SessionID), zap.String("page", v.Page))

	if err := t.touchSession(db, v, now); err != nil {
		log.Error("Session tracking error", zap.Error(err))
	}

	visit := models.PageVisit{
		Page:      v.Page,
		SessionID: v.SessionID,
		UserID:    v.UserID,
		VisitedAt: now,
	}
	if err := db.Create(&visit).Error; err != nil {
		log.Error("Page visit tracking error", zap.Error(err))
	}

	day := now.Format(dateLayout)
	start, end := dayBounds(now)

	if err := t.refreshDaily(db, day, start, end); err != nil {
		return 0, err
	}
	if v.MentorCategory != "" {
		if err := t.refreshMentor(db, day, v.MentorCategory, start, end); err != nil {
			return 0, err
		}
	}

	if err := t.cleanupSessions(db, now); err != nil {
		log.Warn("Session cleanup failed", zap.Error(err))
	}

	return t.activeVisitors(db, now)
}

func (t *FootfallTracker) touchSession(db *gorm.DB, v Visit, now time.Time) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.VisitorSession{}).
			Where("session_id = ?", v.SessionID).
			Count(&existing).Error; err != nil {
			return err
		}

		session := models.VisitorSession{
			SessionID:      v.SessionID,
			UserID:         v.UserID,
			Page:           v.Page,
			MentorCategory: v.MentorCategory,
			LastPing:       now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "page", "mentor_category", "last_ping", "updated_at"}),
		}).Create(&session).Error; err != nil {
			return err
		}

		if existing > 0 {
			return nil
		}
		return incrementLifetime(tx, now)
	})
}

func incrementLifetime(tx *gorm.DB, now time.Time) error {
	counter := models.LifetimeVisitors{ID: 1}
	if err := tx.FirstOrCreate(&counter, models.LifetimeVisitors{ID: 1}).Error; err != nil {
		return err
	}
	return tx.Model(&counter).UpdateColumns(map[string]interface{}{
		"total_unique_visitors": gorm.Expr("total_unique_visitors + ?", 1),
		"last_updated":          now,
	}).Error
}

type visitCounts struct {
	UniqueVisitors int
	TotalViews     int
}

func (t *FootfallTracker) refreshDaily(db *gorm.DB, day string, start, end time.Time) error {
	var counts visitCounts
	if err := db.Model(&models.PageVisit{}).
		Select("COUNT(DISTINCT session_id) AS unique_visitors, COUNT(*) AS total_views").
		Where("visited_at >= ? AND visited_at < ?", start, end).
		Scan(&counts).Error; err != nil {
		return err
	}

	row := models.DailyFootfall{
		Date:                day,
		UniqueVisitorsCount: counts.UniqueVisitors,
		TotalPageViews:      counts.TotalViews,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"unique_visitors_count", "total_page_views", "updated_at"}),
	}).Create(&row).Error
}

func (t *FootfallTracker) refreshMentor(db *gorm.DB, day, category string, start, end time.Time) error {
	var counts visitCounts
	if err := db.Model(&models.PageVisit{}).
		Select("COUNT(DISTINCT session_id) AS unique_visitors, COUNT(*) AS total_views").
		Where("visited_at >= ? AND visited_at < ? AND page LIKE ?", start, end, "%"+category+"%").
		Scan(&counts).Error; err != nil {
		return err
	}

	row := models.MentorFootfall{
		Date:           day,
		MentorCategory: category,
		UniqueVisitors: counts.UniqueVisitors,
		TotalVisits:    counts.TotalViews,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "mentor_category"}},
		DoUpdates: clause.AssignmentColumns([]string{"unique_visitors", "total_visits", "updated_at"}),
	}).Create(&row).Error
}

// cleanupSessions hard-deletes idle sessions so a returning session id can
// be inserted again.
func (t *FootfallTracker) cleanupSessions(db *gorm.DB, now time.Time) error {
	return db.Unscoped().
		Where("last_ping < ?", now.Add(-SessionIdleTTL)).
		Delete(&models.VisitorSession{}).Error
}

func (t *FootfallTracker) activeVisitors(db *gorm.DB, now time.Time) (int64, error) {
	var count int64
	err := db.Model(&models.VisitorSession{}).
		Where("last_ping >= ?", now.Add(-ActiveVisitorWindow)).
		Count(&count).Error
	return count, err
}

// Snapshot gathers everything the analytics dashboard shows.
func (t *FootfallTracker) Snapshot(ctx context.Context) (*FootfallSnapshot, error) {
	db := t.db.WithContext(ctx)
	now := t.now()
	day := now.Format(dateLayout)

	active, err := t.activeVisitors(db, now)
	if err != nil {
		return nil, err
	}

	snapshot := &FootfallSnapshot{ActiveVisitors: active}

	if err := db.Order("date DESC").Limit(footfallHistoryDays).
		Find(&snapshot.DailyFootfall).Error; err != nil {
		return nil, err
	}
	for i := range snapshot.DailyFootfall {
		if snapshot.DailyFootfall[i].Date == day {
			snapshot.Today = &snapshot.DailyFootfall[i]
			break
		}
	}

	if err := db.Where("date = ?", day).Order("mentor_category").
		Find(&snapshot.MentorFootfall).Error; err != nil {
		return nil, err
	}

	var counter models.LifetimeVisitors
	err = db.First(&counter, 1).Error
	switch {
	case err == nil:
		snapshot.LifetimeVisitors = counter.TotalUniqueVisitors
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return snapshot, nil
}

func dayBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
