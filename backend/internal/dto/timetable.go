package dto

import (
	"time"

	"unialloc/backend/internal/model"
)

// TutorBrief 导师摘要
type TutorBrief struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// TimetableEntryResponse 排课条目响应
type TimetableEntryResponse struct {
	EntryID    string      `json:"entry_id"`
	OfferingID string      `json:"offering_id"`
	UnitCode   string      `json:"unit_code,omitempty"`
	CampusID   string      `json:"campus_id"`
	CampusName string      `json:"campus_name,omitempty"`
	Room       string      `json:"room,omitempty"`
	DayOfWeek  int         `json:"day_of_week"`
	StartTime  string      `json:"start_time"`
	EndTime    string      `json:"end_time"`
	StartDate  *string     `json:"start_date,omitempty"`
	EndDate    *string     `json:"end_date,omitempty"`
	Tutor      *TutorBrief `json:"tutor,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewTimetableEntryResponse 从模型构造响应
func NewTimetableEntryResponse(e *model.TimetableEntry) TimetableEntryResponse {
	resp := TimetableEntryResponse{
		EntryID:    e.EntryID,
		OfferingID: e.OfferingID,
		CampusID:   e.CampusID,
		Room:       e.Room,
		DayOfWeek:  e.DayOfWeek,
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		StartDate:  formatDate(e.StartDate),
		EndDate:    formatDate(e.EndDate),
		UpdatedAt:  e.UpdatedAt,
	}
	if e.Offering != nil && e.Offering.Unit != nil {
		resp.UnitCode = e.Offering.Unit.UnitCode
	}
	if e.Campus != nil {
		resp.CampusName = e.Campus.CampusName
	}
	if e.Tutor != nil {
		resp.Tutor = &TutorBrief{
			UserID: e.Tutor.UserID,
			Name:   e.Tutor.FullName(),
			Email:  e.Tutor.Email,
		}
	}
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// CandidateResponse 候选导师响应（来自当前 EOI 行）
type CandidateResponse struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Preference int     `json:"preference"`
	Status     string  `json:"status"`
	CampusID   *string `json:"campus_id,omitempty"`
}
