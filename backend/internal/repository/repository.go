package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User         UserRepository
	Campus       CampusRepository
	Unit         UnitRepository
	Offering     OfferingRepository
	Timetable    TimetableRepository
	Eoi          EoiRepository
	Audit        AuditRepository
	Notification NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		Campus:       NewCampusRepo(db),
		Unit:         NewUnitRepo(db),
		Offering:     NewOfferingRepo(db),
		Timetable:    NewTimetableRepo(db),
		Eoi:          NewEoiRepo(db),
		Audit:        NewAuditRepo(db),
		Notification: NewNotificationRepo(db),
	}
}
