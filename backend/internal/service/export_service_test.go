package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"unialloc/backend/internal/model"
)

func setupExportTest() (ExportService, *testRepos) {
	repos := newTestRepos()
	svc := NewExportService(repos.toRepository(), zap.NewNop())
	return svc, repos
}

func TestFirstOccurrence(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local) // 周日

	// 2026-02-23 是周一；条目排在周二，应顺延一天
	e := &model.TimetableEntry{
		DayOfWeek: model.Tuesday, StartTime: "10:00", EndTime: "12:00",
		StartDate: datePtr("2026-02-23"),
	}
	start, end, ok := firstOccurrence(e, now)
	if !ok {
		t.Fatal("firstOccurrence 应成功")
	}
	if start.Weekday() != time.Tuesday {
		t.Errorf("首次发生星期 = %v, 期望 Tuesday", start.Weekday())
	}
	if start.Format("2006-01-02 15:04") != "2026-02-24 10:00" {
		t.Errorf("首次发生 = %s, 期望 2026-02-24 10:00", start.Format("2006-01-02 15:04"))
	}
	if end.Sub(start) != 2*time.Hour {
		t.Errorf("时长 = %v, 期望 2h", end.Sub(start))
	}

	// 周日条目（7 % 7 = 0 = time.Sunday）
	e = &model.TimetableEntry{DayOfWeek: model.Sunday, StartTime: "09:00", EndTime: "10:00"}
	start, _, ok = firstOccurrence(e, now)
	if !ok || start.Weekday() != time.Sunday {
		t.Errorf("周日条目首次发生星期 = %v, 期望 Sunday", start.Weekday())
	}

	// 脏数据：时刻无法解析
	e = &model.TimetableEntry{DayOfWeek: model.Monday, StartTime: "9am", EndTime: "10:00"}
	if _, _, ok = firstOccurrence(e, now); ok {
		t.Error("非法时刻应返回 ok=false")
	}
}

func TestFormatDateRange(t *testing.T) {
	if got := formatDateRange(nil, nil); got != "All term" {
		t.Errorf("双向无界 = %q, 期望 All term", got)
	}
	if got := formatDateRange(datePtr("2026-02-23"), datePtr("2026-06-05")); got != "2026-02-23 ~ 2026-06-05" {
		t.Errorf("完整窗口 = %q", got)
	}
	if got := formatDateRange(datePtr("2026-02-23"), nil); got != "2026-02-23 ~ …" {
		t.Errorf("仅起始 = %q", got)
	}
}

func TestExportOfferingTimetable(t *testing.T) {
	svc, repos := setupExportTest()
	repos.offering.offerings["off-kit101"] = &model.UnitCourseOffering{
		OfferingID: "off-kit101", UnitID: "unit-kit101", CampusID: "campus-sb",
		Term: "S1", Year: 2026,
		Unit: &model.Unit{UnitID: "unit-kit101", UnitCode: "KIT101"},
	}
	seedEntry(repos, "e1", "off-kit101", "campus-sb", "tutor-1", 2, "10:00", "12:00", nil, nil)

	buf, filename, err := svc.ExportOfferingTimetable(context.Background(), "off-kit101")
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("导出内容不应为空")
	}
	if filename != "timetable_KIT101_S1_2026.xlsx" {
		t.Errorf("文件名 = %q, 期望 timetable_KIT101_S1_2026.xlsx", filename)
	}
}

func TestExportOfferingTimetable_NoEntries(t *testing.T) {
	svc, repos := setupExportTest()
	repos.offering.offerings["off-empty"] = &model.UnitCourseOffering{
		OfferingID: "off-empty", UnitID: "unit-kit101", CampusID: "campus-sb",
		Term: "S1", Year: 2026,
	}

	_, _, err := svc.ExportOfferingTimetable(context.Background(), "off-empty")
	if !errors.Is(err, ErrExportNoEntries) {
		t.Errorf("期望 ErrExportNoEntries, 得到 %v", err)
	}

	_, _, err = svc.ExportOfferingTimetable(context.Background(), "off-missing")
	if !errors.Is(err, ErrOfferingNotFound) {
		t.Errorf("期望 ErrOfferingNotFound, 得到 %v", err)
	}
}

func TestExportTutorCalendar(t *testing.T) {
	svc, repos := setupExportTest()
	seedEntry(repos, "e1", "off-kit101", "campus-sb", "tutor-1", 2, "10:00", "12:00",
		datePtr("2026-02-23"), datePtr("2026-06-05"))
	repos.timetable.entries["e1"].Room = "SB-203"

	buf, filename, err := svc.ExportTutorCalendar(context.Background(), "tutor-1")
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if filename != "my_timetable.ics" {
		t.Errorf("文件名 = %q, 期望 my_timetable.ics", filename)
	}

	content := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:e1@unialloc",
		"RRULE:FREQ=WEEKLY;UNTIL=20260605T235959Z",
		"LOCATION:SB-203",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("ICS 内容缺少 %q", want)
		}
	}
}

func TestExportTutorCalendar_NoEntries(t *testing.T) {
	svc, _ := setupExportTest()

	_, _, err := svc.ExportTutorCalendar(context.Background(), "tutor-ghost")
	if !errors.Is(err, ErrExportNoEntries) {
		t.Errorf("期望 ErrExportNoEntries, 得到 %v", err)
	}
}
