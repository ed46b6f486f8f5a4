package models

import "gorm.io/gorm"

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&UserRole{},
		&LoginHistory{},
		&UserProgress{},
		&Exam{},
		&Question{},
		&UserAnswer{},
		&ExamResult{},
		&VisitorSession{},
		&PageVisit{},
		&DailyFootfall{},
		&MentorFootfall{},
		&LifetimeVisitors{},
		&FinancialProfile{},
		&Budget{},
		&Expense{},
		&FinancialGoal{},
		&Investment{},
		&CodeSnippet{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
