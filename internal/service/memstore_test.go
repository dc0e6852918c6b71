package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"

	"gorm.io/gorm"
)

// memStore 是 repository.Store 的内存实现。Transaction 失败时整体回滚到快照，
// 唯一约束按 gorm 的错误语义返回 ErrDuplicatedKey。
type memStore struct {
	mu   *sync.Mutex
	data *memData
	// failOn 按方法名注入写入错误
	failOn map[string]error
}

type memData struct {
	seq uint

	users         map[uint]model.User
	courses       map[uint]model.Course
	lessons       map[uint]model.Lesson
	completions   map[uint]model.LessonCompletion
	quizzes       map[uint]model.Quiz
	attempts      map[uint]model.Attempt
	answers       map[uint]model.Answer
	enrollments   map[uint]model.Enrollment
	paths         map[uint]model.LearningPath
	pathEnrolls   map[uint]model.PathEnrollment
	certificates  map[uint]model.Certificate
	pointHistory  map[uint]model.PointHistory
	notifications map[uint]model.Notification
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		mu:     &sync.Mutex{},
		failOn: map[string]error{},
		data: &memData{
			users:         map[uint]model.User{},
			courses:       map[uint]model.Course{},
			lessons:       map[uint]model.Lesson{},
			completions:   map[uint]model.LessonCompletion{},
			quizzes:       map[uint]model.Quiz{},
			attempts:      map[uint]model.Attempt{},
			answers:       map[uint]model.Answer{},
			enrollments:   map[uint]model.Enrollment{},
			paths:         map[uint]model.LearningPath{},
			pathEnrolls:   map[uint]model.PathEnrollment{},
			certificates:  map[uint]model.Certificate{},
			pointHistory:  map[uint]model.PointHistory{},
			notifications: map[uint]model.Notification{},
		},
	}
}

func cloneMap[T any](m map[uint]T) map[uint]T {
	out := make(map[uint]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memData) clone() *memData {
	return &memData{
		seq:           d.seq,
		users:         cloneMap(d.users),
		courses:       cloneMap(d.courses),
		lessons:       cloneMap(d.lessons),
		completions:   cloneMap(d.completions),
		quizzes:       cloneMap(d.quizzes),
		attempts:      cloneMap(d.attempts),
		answers:       cloneMap(d.answers),
		enrollments:   cloneMap(d.enrollments),
		paths:         cloneMap(d.paths),
		pathEnrolls:   cloneMap(d.pathEnrolls),
		certificates:  cloneMap(d.certificates),
		pointHistory:  cloneMap(d.pointHistory),
		notifications: cloneMap(d.notifications),
	}
}

func (s *memStore) next() uint {
	s.data.seq++
	return s.data.seq
}

func (s *memStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(s); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// ---- users ----

func (s *memStore) FindUser(id uint) (*model.User, error) {
	u, ok := s.data.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (s *memStore) IncrementUserPoints(userID uint, amount int) error {
	u, ok := s.data.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Points += amount
	s.data.users[userID] = u
	return nil
}

// ---- quizzes ----

func (s *memStore) FindQuizWithQuestions(id uint) (*model.Quiz, error) {
	q, ok := s.data.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	qs := make([]model.Question, len(q.Questions))
	copy(qs, q.Questions)
	q.Questions = qs
	return &q, nil
}

func (s *memStore) RequiredQuizIDs(courseID uint) ([]uint, error) {
	var ids []uint
	for id, q := range s.data.quizzes {
		if q.CourseID == courseID && q.RequiredForCompletion {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ---- attempts ----

func (s *memStore) withAnswers(a model.Attempt) *model.Attempt {
	a.Answers = nil
	var ids []uint
	for id, ans := range s.data.answers {
		if ans.AttemptID == a.ID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		a.Answers = append(a.Answers, s.data.answers[id])
	}
	return &a
}

func (s *memStore) CreateAttempt(a *model.Attempt) error {
	a.ID = s.next()
	stored := *a
	stored.Answers = nil
	s.data.attempts[a.ID] = stored
	return nil
}

func (s *memStore) FindAttempt(id uint) (*model.Attempt, error) {
	a, ok := s.data.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.withAnswers(a), nil
}

func (s *memStore) LockAttempt(id uint) (*model.Attempt, error) {
	return s.FindAttempt(id)
}

func (s *memStore) SaveAttempt(a *model.Attempt) error {
	stored := *a
	stored.Answers = nil
	s.data.attempts[a.ID] = stored
	return nil
}

func (s *memStore) CountAttempts(userID, quizID uint) (int64, error) {
	var n int64
	for _, a := range s.data.attempts {
		if a.UserID == userID && a.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) FindInProgressAttempt(userID, quizID uint) (*model.Attempt, error) {
	for _, a := range s.data.attempts {
		if a.UserID == userID && a.QuizID == quizID && a.Status == model.AttemptInProgress {
			return s.withAnswers(a), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) SaveAnswer(a *model.Answer) error {
	if a.ID == 0 {
		for _, existing := range s.data.answers {
			if existing.AttemptID == a.AttemptID && existing.QuestionID == a.QuestionID {
				return gorm.ErrDuplicatedKey
			}
		}
		a.ID = s.next()
	}
	s.data.answers[a.ID] = *a
	return nil
}

func (s *memStore) LatestAttempts(userID uint, quizIDs []uint) ([]model.Attempt, error) {
	latest := map[uint]model.Attempt{}
	for _, a := range s.data.attempts {
		if a.UserID != userID {
			continue
		}
		for _, qid := range quizIDs {
			if a.QuizID == qid && a.ID > latest[qid].ID {
				latest[qid] = a
			}
		}
	}
	out := make([]model.Attempt, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	return out, nil
}

// ---- courses & enrollments ----

func (s *memStore) FindCourse(id uint) (*model.Course, error) {
	c, ok := s.data.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (s *memStore) FindLesson(id uint) (*model.Lesson, error) {
	l, ok := s.data.lessons[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (s *memStore) CountLessons(courseID uint) (int64, error) {
	var n int64
	for _, l := range s.data.lessons {
		if l.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountCompletedLessons(userID, courseID uint) (int64, error) {
	var n int64
	for _, c := range s.data.completions {
		if c.UserID != userID || c.CourseID != courseID {
			continue
		}
		if _, ok := s.data.lessons[c.LessonID]; ok {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateLessonCompletion(c *model.LessonCompletion) error {
	for _, existing := range s.data.completions {
		if existing.UserID == c.UserID && existing.LessonID == c.LessonID {
			return gorm.ErrDuplicatedKey
		}
	}
	c.ID = s.next()
	s.data.completions[c.ID] = *c
	return nil
}

func (s *memStore) FindEnrollment(userID, courseID uint) (*model.Enrollment, error) {
	for _, e := range s.data.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) LockEnrollment(userID, courseID uint) (*model.Enrollment, error) {
	return s.FindEnrollment(userID, courseID)
}

func (s *memStore) CreateEnrollment(e *model.Enrollment) error {
	if _, err := s.FindEnrollment(e.UserID, e.CourseID); err == nil {
		return gorm.ErrDuplicatedKey
	}
	e.ID = s.next()
	s.data.enrollments[e.ID] = *e
	return nil
}

func (s *memStore) SaveEnrollment(e *model.Enrollment) error {
	s.data.enrollments[e.ID] = *e
	return nil
}

func (s *memStore) EnrollmentsByCourses(userID uint, courseIDs []uint) (map[uint]model.Enrollment, error) {
	out := map[uint]model.Enrollment{}
	for _, cid := range courseIDs {
		if e, err := s.FindEnrollment(userID, cid); err == nil {
			out[cid] = *e
		}
	}
	return out, nil
}

// ---- paths ----

func (s *memStore) FindPathWithCourses(id uint) (*model.LearningPath, error) {
	p, ok := s.data.paths[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	courses := make([]model.LearningPathCourse, len(p.Courses))
	copy(courses, p.Courses)
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].Position < courses[j].Position })
	for i := range courses {
		if c, ok := s.data.courses[courses[i].CourseID]; ok {
			courses[i].Course = &c
		}
	}
	p.Courses = courses
	return &p, nil
}

func (s *memStore) PathsContainingCourse(courseID uint) ([]model.LearningPath, error) {
	var ids []uint
	for id, p := range s.data.paths {
		for _, c := range p.Courses {
			if c.CourseID == courseID {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.LearningPath, 0, len(ids))
	for _, id := range ids {
		p, _ := s.FindPathWithCourses(id)
		out = append(out, *p)
	}
	return out, nil
}

func (s *memStore) FindPathEnrollment(userID, pathID uint) (*model.PathEnrollment, error) {
	for _, pe := range s.data.pathEnrolls {
		if pe.UserID == userID && pe.PathID == pathID {
			return &pe, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) LockPathEnrollment(userID, pathID uint) (*model.PathEnrollment, error) {
	return s.FindPathEnrollment(userID, pathID)
}

func (s *memStore) CreatePathEnrollment(pe *model.PathEnrollment) error {
	if _, err := s.FindPathEnrollment(pe.UserID, pe.PathID); err == nil {
		return gorm.ErrDuplicatedKey
	}
	pe.ID = s.next()
	s.data.pathEnrolls[pe.ID] = *pe
	return nil
}

func (s *memStore) SavePathEnrollment(pe *model.PathEnrollment) error {
	s.data.pathEnrolls[pe.ID] = *pe
	return nil
}

func (s *memStore) ListPathEnrollments(userID uint) ([]model.PathEnrollment, error) {
	var out []model.PathEnrollment
	for _, pe := range s.data.pathEnrolls {
		if pe.UserID == userID {
			out = append(out, pe)
		}
	}
	return out, nil
}

func (s *memStore) CreatePath(p *model.LearningPath) error {
	p.ID = s.next()
	stored := *p
	stored.Courses = nil
	s.data.paths[p.ID] = stored
	return nil
}

func (s *memStore) UpdatePath(p *model.LearningPath) error {
	stored, ok := s.data.paths[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	courses := stored.Courses
	stored = *p
	stored.Courses = courses
	s.data.paths[p.ID] = stored
	return nil
}

func (s *memStore) ReplacePathCourses(pathID uint, courseIDs []uint) error {
	if err := s.failOn["ReplacePathCourses"]; err != nil {
		return err
	}
	p, ok := s.data.paths[pathID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Courses = make([]model.LearningPathCourse, len(courseIDs))
	for i, cid := range courseIDs {
		p.Courses[i] = model.LearningPathCourse{ID: s.next(), PathID: pathID, CourseID: cid, Position: i}
	}
	s.data.paths[pathID] = p
	return nil
}

func (s *memStore) OpenPathEnrollments(pathID uint) ([]model.PathEnrollment, error) {
	var out []model.PathEnrollment
	for _, pe := range s.data.pathEnrolls {
		if pe.PathID == pathID && pe.Status != model.PathEnrollmentCompleted {
			out = append(out, pe)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- certificates, points, notifications ----

func (s *memStore) FindCertificate(userID uint, typ model.CertificateType, refID uint) (*model.Certificate, error) {
	for _, c := range s.data.certificates {
		if c.UserID == userID && c.Type == typ && c.ReferenceID == refID {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) CreateCertificate(c *model.Certificate) error {
	for _, existing := range s.data.certificates {
		if existing.Number == c.Number ||
			(existing.UserID == c.UserID && existing.Type == c.Type && existing.ReferenceID == c.ReferenceID) {
			return gorm.ErrDuplicatedKey
		}
	}
	c.ID = s.next()
	s.data.certificates[c.ID] = *c
	return nil
}

func (s *memStore) CreatePointHistory(h *model.PointHistory) error {
	for _, existing := range s.data.pointHistory {
		if existing.UserID == h.UserID && existing.SourceType == h.SourceType && existing.SourceID == h.SourceID {
			return gorm.ErrDuplicatedKey
		}
	}
	h.ID = s.next()
	s.data.pointHistory[h.ID] = *h
	return nil
}

func (s *memStore) CreateNotification(n *model.Notification) error {
	n.ID = s.next()
	s.data.notifications[n.ID] = *n
	return nil
}

// ---- fixture ----

type recordingHook struct {
	events []Event
}

func (h *recordingHook) Name() string { return "recording" }

func (h *recordingHook) Handle(_ context.Context, ev Event) error {
	h.events = append(h.events, ev)
	return nil
}

func (h *recordingHook) count(kind EventKind) int {
	n := 0
	for _, ev := range h.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memStore
	hook       *recordingHook
	engine     *CompletionEngine
	quiz       *QuizService
	progress   *ProgressService
	paths      *LearningPathService
	learner    uint
	instructor uint // addCourse 创建的课程都归这位讲师
}

func newFixture() *fixture {
	store := newMemStore()
	hook := &recordingHook{}
	notes := &NotificationService{}
	clock := func() time.Time { return fixedNow }
	engine := &CompletionEngine{
		Certs:  &CertificateService{Notes: notes, Now: clock},
		Points: &PointService{Notes: notes},
		Notes:  notes,
		Rewards: NewRewardPolicy(config.RewardConfig{
			CourseCompletionPoints: 100,
			PathCompletionPoints:   500,
			QuizPassPoints:         10,
		}),
		Now: clock,
	}
	dispatcher := NewDispatcher(hook)

	f := &fixture{
		store:    store,
		hook:     hook,
		engine:   engine,
		quiz:     &QuizService{Store: store, Engine: engine, Dispatcher: dispatcher},
		progress: &ProgressService{Store: store, Engine: engine, Dispatcher: dispatcher},
		paths:    &LearningPathService{Store: store, Engine: engine, Dispatcher: dispatcher},
	}
	f.learner = f.addUser("学员")
	f.instructor = f.addStaff("讲师", model.Instructor)
	return f
}

func (f *fixture) addUser(name string) uint {
	return f.addStaff(name, model.Learner)
}

func (f *fixture) addStaff(name string, role model.UserRole) uint {
	id := f.store.next()
	f.store.data.users[id] = model.User{BaseModel: model.BaseModel{ID: id}, Name: name, Role: role}
	return id
}

// addCourse 已发布课程，含 n 个课时
func (f *fixture) addCourse(title string, lessons int) (uint, []uint) {
	id := f.store.next()
	f.store.data.courses[id] = model.Course{
		BaseModel:   model.BaseModel{ID: id},
		Title:       title,
		IsPublished: true,
		CreatorID:   f.instructor,
	}
	ids := make([]uint, lessons)
	for i := range ids {
		lid := f.store.next()
		f.store.data.lessons[lid] = model.Lesson{
			BaseModel: model.BaseModel{ID: lid},
			CourseID:  id,
			Title:     title,
			Position:  i,
		}
		ids[i] = lid
	}
	return id, ids
}

func (f *fixture) enroll(userID, courseID uint) {
	id := f.store.next()
	f.store.data.enrollments[id] = model.Enrollment{
		BaseModel:  model.BaseModel{ID: id},
		UserID:     userID,
		CourseID:   courseID,
		Status:     model.EnrollmentEnrolled,
		EnrolledAt: fixedNow,
	}
}

func (f *fixture) mcQuestion(points int) model.Question {
	qid := f.store.next()
	right, wrong := f.store.next(), f.store.next()
	return model.Question{
		BaseModel: model.BaseModel{ID: qid},
		Type:      model.MultipleChoice,
		Prompt:    "choose",
		Points:    points,
		Options: []model.Option{
			{BaseModel: model.BaseModel{ID: wrong}, QuestionID: qid, Text: "wrong", Position: 0},
			{BaseModel: model.BaseModel{ID: right}, QuestionID: qid, Text: "right", IsCorrect: true, Position: 1},
		},
	}
}

func (f *fixture) essayQuestion(points int) model.Question {
	qid := f.store.next()
	return model.Question{BaseModel: model.BaseModel{ID: qid}, Type: model.Essay, Prompt: "explain", Points: points}
}

func (f *fixture) addQuiz(q model.Quiz, questions ...model.Question) *model.Quiz {
	q.ID = f.store.next()
	if q.Title == "" {
		q.Title = "quiz"
	}
	for i := range questions {
		questions[i].QuizID = q.ID
		questions[i].Position = i
	}
	q.Questions = questions
	f.store.data.quizzes[q.ID] = q
	return &q
}

func correctOption(q model.Question) *uint {
	for _, o := range q.Options {
		if o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	return nil
}

func wrongOption(q model.Question) *uint {
	for _, o := range q.Options {
		if !o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	return nil
}

func (f *fixture) certificates(userID uint) []model.Certificate {
	var out []model.Certificate
	for _, c := range f.store.data.certificates {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

func (f *fixture) pointHistory(userID uint) []model.PointHistory {
	var out []model.PointHistory
	for _, h := range f.store.data.pointHistory {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out
}
