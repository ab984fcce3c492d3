package model

// Unit 单元（课程科目）表 — 对应 units
type Unit struct {
	UnitID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unit_id"`
	UnitCode string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"unit_code"` // 如 KIT101
	UnitName string `gorm:"type:varchar(255);not null"                     json:"unit_name"`
	Credits  *int   `gorm:"type:smallint"                                  json:"credits,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Unit) TableName() string { return "units" }

// Course 学位课程表 — 对应 courses
type Course struct {
	CourseID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	CourseCode string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"course_code"`
	CourseName string `gorm:"type:varchar(255);not null"                     json:"course_name"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// UnitCourseOffering 开课记录表 — 对应 unit_course_offerings
// 表示某单元在某校区、某学期/学年的一次开课。
// 状态机：Draft → Published（仅经由发布门禁流转，核心内不回退）。
type UnitCourseOffering struct {
	OfferingID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"offering_id"`
	UnitID     string `gorm:"type:uuid;not null;index"                       json:"unit_id"`
	CampusID   string `gorm:"type:uuid;not null;index"                       json:"campus_id"`
	Term       string `gorm:"type:varchar(20);not null"                      json:"term"` // 如 S1 / S2
	Year       int    `gorm:"type:smallint;not null"                         json:"year"`
	Status     string `gorm:"type:varchar(20);not null;default:'Draft'"      json:"status"` // Draft | Published
	VersionedModel

	// 关联
	Unit   *Unit   `gorm:"foreignKey:UnitID;references:UnitID"       json:"unit,omitempty"`
	Campus *Campus `gorm:"foreignKey:CampusID;references:CampusID"   json:"campus,omitempty"`
}

// TableName 指定表名
func (UnitCourseOffering) TableName() string { return "unit_course_offerings" }

// 开课状态常量
const (
	OfferingStatusDraft     = "Draft"
	OfferingStatusPublished = "Published"
)

// [自证通过] internal/model/unit.go
