package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"unialloc/backend/internal/model"
	"unialloc/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context, role string, _, _ int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock CampusRepository ──

type mockCampusRepo struct {
	campuses map[string]*model.Campus
}

func newMockCampusRepo() *mockCampusRepo {
	return &mockCampusRepo{campuses: make(map[string]*model.Campus)}
}

func (m *mockCampusRepo) GetByID(_ context.Context, id string) (*model.Campus, error) {
	if c, ok := m.campuses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCampusRepo) GetByName(_ context.Context, name string) (*model.Campus, error) {
	for _, c := range m.campuses {
		if c.CampusName == name {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCampusRepo) List(_ context.Context) ([]model.Campus, error) {
	var result []model.Campus
	for _, c := range m.campuses {
		result = append(result, *c)
	}
	return result, nil
}

// ── Mock UnitRepository ──

type mockUnitRepo struct {
	units map[string]*model.Unit
}

func newMockUnitRepo() *mockUnitRepo {
	return &mockUnitRepo{units: make(map[string]*model.Unit)}
}

func (m *mockUnitRepo) GetByID(_ context.Context, id string) (*model.Unit, error) {
	if u, ok := m.units[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) GetByCode(_ context.Context, code string) (*model.Unit, error) {
	for _, u := range m.units {
		if u.UnitCode == code {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) List(_ context.Context, _, _ int) ([]model.Unit, int64, error) {
	var result []model.Unit
	for _, u := range m.units {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

// ── Mock OfferingRepository ──

type mockOfferingRepo struct {
	offerings map[string]*model.UnitCourseOffering
	timetable *mockTimetableRepo // PublishIfAllocated 需要检查时段分配
}

func newMockOfferingRepo(timetable *mockTimetableRepo) *mockOfferingRepo {
	return &mockOfferingRepo{
		offerings: make(map[string]*model.UnitCourseOffering),
		timetable: timetable,
	}
}

func (m *mockOfferingRepo) Create(_ context.Context, offering *model.UnitCourseOffering) error {
	if offering.OfferingID == "" {
		offering.OfferingID = fmt.Sprintf("off-%d", len(m.offerings)+1)
	}
	m.offerings[offering.OfferingID] = offering
	return nil
}

func (m *mockOfferingRepo) GetByID(_ context.Context, id string) (*model.UnitCourseOffering, error) {
	if o, ok := m.offerings[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOfferingRepo) GetByKey(_ context.Context, unitID, campusID, term string, year int) (*model.UnitCourseOffering, error) {
	for _, o := range m.offerings {
		if o.UnitID == unitID && o.CampusID == campusID && o.Term == term && o.Year == year {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOfferingRepo) ListByUnit(_ context.Context, unitID string) ([]model.UnitCourseOffering, error) {
	var result []model.UnitCourseOffering
	for _, o := range m.offerings {
		if o.UnitID == unitID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (m *mockOfferingRepo) Update(_ context.Context, offering *model.UnitCourseOffering) error {
	m.offerings[offering.OfferingID] = offering
	offering.Version++
	return nil
}

func (m *mockOfferingRepo) PublishIfAllocated(_ context.Context, offeringID string, updatedBy *string) (bool, error) {
	o, ok := m.offerings[offeringID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}

	allocated := false
	m.timetable.mu.Lock()
	defer m.timetable.mu.Unlock()
	for _, e := range m.timetable.entries {
		if e.OfferingID == offeringID && e.TutorUserID != nil {
			allocated = true
			break
		}
	}
	if !allocated {
		return false, nil
	}

	o.Status = model.OfferingStatusPublished
	o.UpdatedBy = updatedBy
	o.UpdatedAt = time.Now()
	return true, nil
}

// ── Mock TimetableRepository ──

// 分配服务仅对同一时段键串行化，不同时段键的调用全程并发，
// 因此 mock 自身须持锁保证跨键并发安全。
type mockTimetableRepo struct {
	mu      sync.Mutex
	entries map[string]*model.TimetableEntry
	nextID  int
}

func newMockTimetableRepo() *mockTimetableRepo {
	return &mockTimetableRepo{entries: make(map[string]*model.TimetableEntry)}
}

func (m *mockTimetableRepo) Create(_ context.Context, entry *model.TimetableEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.EntryID == "" {
		m.nextID++
		entry.EntryID = fmt.Sprintf("entry-%d", m.nextID)
	}
	entry.UpdatedAt = time.Now()
	m.entries[entry.EntryID] = entry
	return nil
}

func (m *mockTimetableRepo) GetByID(_ context.Context, id string) (*model.TimetableEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func dateKey(t *time.Time, sentinel string) string {
	if t == nil {
		return sentinel
	}
	return t.Format("2006-01-02")
}

func (m *mockTimetableRepo) FindBySlot(_ context.Context, offeringID, campusID string, slot model.Slot) (*model.TimetableEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.OfferingID == offeringID && e.CampusID == campusID &&
			e.DayOfWeek == slot.DayOfWeek &&
			e.StartTime == slot.StartTime && e.EndTime == slot.EndTime &&
			dateKey(e.StartDate, "0001-01-01") == dateKey(slot.StartDate, "0001-01-01") &&
			dateKey(e.EndDate, "9999-12-31") == dateKey(slot.EndDate, "9999-12-31") {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) UpdateAssignment(_ context.Context, entryID string, tutorUserID *string, room string, updatedBy *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.TutorUserID = tutorUserID
	e.Room = room
	e.UpdatedBy = updatedBy
	e.UpdatedAt = time.Now()
	return nil
}

func (m *mockTimetableRepo) ListByOffering(_ context.Context, offeringID string) ([]model.TimetableEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.TimetableEntry
	for _, e := range m.entries {
		if e.OfferingID == offeringID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func (m *mockTimetableRepo) ListByTutor(_ context.Context, tutorUserID string) ([]model.TimetableEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.TimetableEntry
	for _, e := range m.entries {
		if e.TutorUserID != nil && *e.TutorUserID == tutorUserID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockTimetableRepo) ListClashCandidates(_ context.Context, tutorUserID, campusID string, dayOfWeek int, startTime, endTime, excludeEntryID string) ([]model.TimetableEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.TimetableEntry
	for _, e := range m.entries {
		if e.TutorUserID == nil || *e.TutorUserID != tutorUserID {
			continue
		}
		if e.CampusID != campusID || e.DayOfWeek != dayOfWeek {
			continue
		}
		if excludeEntryID != "" && e.EntryID == excludeEntryID {
			continue
		}
		if timeOverlaps(e.StartTime, e.EndTime, startTime, endTime) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockTimetableRepo) DistinctAllocatedTutorIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, e := range m.entries {
		if e.TutorUserID != nil && !seen[*e.TutorUserID] {
			seen[*e.TutorUserID] = true
			ids = append(ids, *e.TutorUserID)
		}
	}
	return ids, nil
}

func (m *mockTimetableRepo) HasAllocated(_ context.Context, offeringID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.OfferingID == offeringID && e.TutorUserID != nil {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock EoiRepository ──

type mockEoiRepo struct {
	eois []model.EoiApplication
}

func newMockEoiRepo() *mockEoiRepo {
	return &mockEoiRepo{}
}

func (m *mockEoiRepo) ListCurrentByUnit(_ context.Context, unitID string, campusID *string) ([]model.EoiApplication, error) {
	var result []model.EoiApplication
	for _, e := range m.eois {
		if e.UnitID != unitID || e.RowExpiredAt != nil {
			continue
		}
		if campusID != nil && e.CampusID != nil && *e.CampusID != *campusID {
			continue
		}
		result = append(result, e)
	}
	// 偏好升序，0（未标偏好）排最后
	sort.SliceStable(result, func(i, j int) bool {
		pi, pj := result[i].Preference, result[j].Preference
		if pi == 0 {
			return false
		}
		if pj == 0 {
			return true
		}
		return pi < pj
	})
	return result, nil
}

// ── Mock AuditRepository ──

// 审计记录在时段锁外落盘，并发分配下 Create 会被并发调用。
type mockAuditRepo struct {
	mu      sync.Mutex
	records []model.AuditRecord
	failAll bool // 模拟审计存储不可用
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{}
}

func (m *mockAuditRepo) Create(_ context.Context, record *model.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return fmt.Errorf("audit storage unavailable")
	}
	if record.AuditID == "" {
		record.AuditID = fmt.Sprintf("audit-%d", len(m.records)+1)
	}
	record.CreatedAt = time.Now()
	m.records = append(m.records, *record)
	return nil
}

func (m *mockAuditRepo) List(_ context.Context, filter repository.AuditFilter) ([]model.AuditRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AuditRecord
	for _, r := range m.records {
		if filter.Action != "" && r.Action != filter.Action {
			continue
		}
		if filter.ActorID != "" && r.ActorID != filter.ActorID {
			continue
		}
		result = append(result, r)
	}
	return result, int64(len(result)), nil
}

// actions 返回按写入顺序排列的动作序列
func (m *mockAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var actions []string
	for _, r := range m.records {
		actions = append(actions, r.Action)
	}
	return actions
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	if notification.NotificationID == "" {
		notification.NotificationID = fmt.Sprintf("notif-%d", len(m.notifications)+1)
	}
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, notificationID, userID string) error {
	for i := range m.notifications {
		if m.notifications[i].NotificationID == notificationID && m.notifications[i].UserID == userID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ── Mock 邮件与通知端口 ──

type mockMailer struct {
	sent []string // 收件人列表
}

func (m *mockMailer) Send(to, _, _ string) error {
	m.sent = append(m.sent, to)
	return nil
}

// mockNotifier 记录通知调用，可针对指定用户模拟投递失败
type mockNotifier struct {
	notified []string
	failFor  map[string]bool
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{failFor: make(map[string]bool)}
}

func (m *mockNotifier) Notify(_ context.Context, userID, _, _, _ string, _, _ *string) error {
	if m.failFor[userID] {
		return fmt.Errorf("notify failed for %s", userID)
	}
	m.notified = append(m.notified, userID)
	return nil
}

// ── 测试用 Repository 聚合 ──

type testRepos struct {
	user         *mockUserRepo
	campus       *mockCampusRepo
	unit         *mockUnitRepo
	offering     *mockOfferingRepo
	timetable    *mockTimetableRepo
	eoi          *mockEoiRepo
	audit        *mockAuditRepo
	notification *mockNotificationRepo
}

func newTestRepos() *testRepos {
	timetable := newMockTimetableRepo()
	return &testRepos{
		user:         newMockUserRepo(),
		campus:       newMockCampusRepo(),
		unit:         newMockUnitRepo(),
		offering:     newMockOfferingRepo(timetable),
		timetable:    timetable,
		eoi:          newMockEoiRepo(),
		audit:        newMockAuditRepo(),
		notification: newMockNotificationRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:         r.user,
		Campus:       r.campus,
		Unit:         r.unit,
		Offering:     r.offering,
		Timetable:    r.timetable,
		Eoi:          r.eoi,
		Audit:        r.audit,
		Notification: r.notification,
	}
}
