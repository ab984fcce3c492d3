package dto

// ── 发布门禁状态 ──

const (
	PublishStatusPublished      = "PUBLISHED"
	PublishStatusAdjustRequired = "ADJUST_REQUIRED"
	PublishStatusBlocked        = "BLOCKED"

	PublishDecisionApproved = "APPROVED"
)

// PublishDecisionRequest 发布决策请求
type PublishDecisionRequest struct {
	UnitID   string `json:"unit_id"   binding:"required,uuid"`
	CampusID string `json:"campus_id" binding:"required,uuid"`
	Term     string `json:"term"      binding:"required"`
	Year     int    `json:"year"      binding:"required"`
	Decision string `json:"decision"  binding:"required"` // APPROVED；其余一律视为驳回
}

// PublishResult 发布门禁结果
type PublishResult struct {
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	OfferingID string `json:"offering_id,omitempty"`
}

// UnitStatusResponse 开课状态查询响应
type UnitStatusResponse struct {
	OfferingID string `json:"offering_id"`
	UnitCode   string `json:"unit_code"`
	Term       string `json:"term"`
	Year       int    `json:"year"`
	CampusID   string `json:"campus_id"`
	Status     string `json:"status"` // Draft | Published
}
