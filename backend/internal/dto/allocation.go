package dto

import (
	"errors"
	"time"

	"unialloc/backend/internal/model"
)

// ── 分配结果状态（对外接口约定，保持英文） ──

const (
	AllocationStatusAllocated       = "ALLOCATED"
	AllocationStatusNeedsAdjustment = "NEEDS_ADJUSTMENT"
	AllocationStatusRemoved         = "REMOVED"
	AllocationStatusNoMatch         = "NO_MATCH"
)

// ErrInvalidDate 日期字段解析失败
var ErrInvalidDate = errors.New("日期格式必须为 YYYY-MM-DD")

// SlotPayload 时段请求体
type SlotPayload struct {
	DayOfWeek int     `json:"day_of_week" binding:"required,min=1,max=7"`
	StartTime string  `json:"start_time"  binding:"required,len=5"` // "HH:MM"
	EndTime   string  `json:"end_time"    binding:"required,len=5"`
	StartDate *string `json:"start_date,omitempty"` // "YYYY-MM-DD"，空表示无界
	EndDate   *string `json:"end_date,omitempty"`
	Room      string  `json:"room,omitempty"`
}

// ToModel 转换为时段值对象，解析日期字符串
func (p *SlotPayload) ToModel() (model.Slot, error) {
	slot := model.Slot{
		DayOfWeek: p.DayOfWeek,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		Room:      p.Room,
	}
	if p.StartDate != nil && *p.StartDate != "" {
		t, err := time.Parse("2006-01-02", *p.StartDate)
		if err != nil {
			return slot, ErrInvalidDate
		}
		slot.StartDate = &t
	}
	if p.EndDate != nil && *p.EndDate != "" {
		t, err := time.Parse("2006-01-02", *p.EndDate)
		if err != nil {
			return slot, ErrInvalidDate
		}
		slot.EndDate = &t
	}
	return slot, nil
}

// AllocateRequest 分配导师请求
type AllocateRequest struct {
	TutorUserID   string      `json:"tutor_user_id" binding:"required,uuid"`
	OfferingID    string      `json:"offering_id"   binding:"required,uuid"`
	CampusID      string      `json:"campus_id"     binding:"required,uuid"`
	Slot          SlotPayload `json:"slot"          binding:"required"`
	AllowOverride bool        `json:"allow_override"`
}

// RemoveRequest 解除分配请求
type RemoveRequest struct {
	OfferingID string      `json:"offering_id" binding:"required,uuid"`
	CampusID   string      `json:"campus_id"   binding:"required,uuid"`
	Slot       SlotPayload `json:"slot"        binding:"required"`
}

// ReassignRequest 改派请求
type ReassignRequest struct {
	FromTutorUserID string      `json:"from_tutor_user_id" binding:"required,uuid"`
	ToTutorUserID   string      `json:"to_tutor_user_id"   binding:"required,uuid"`
	OfferingID      string      `json:"offering_id"        binding:"required,uuid"`
	CampusID        string      `json:"campus_id"          binding:"required,uuid"`
	Slot            SlotPayload `json:"slot"               binding:"required"`
	AllowOverride   bool        `json:"allow_override"`
}

// AllocationResult 分配操作结果
// 冲突、无匹配等均为正常结果而非错误，便于批量调用方继续处理后续项。
type AllocationResult struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	EntryID string `json:"entry_id,omitempty"`
}
