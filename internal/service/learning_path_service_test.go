package service

import (
	"context"
	"errors"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/util"
)

// addPath 已发布路径，课程按参数顺序排列
func (f *fixture) addPath(title string, courseIDs ...uint) uint {
	id := f.store.next()
	p := model.LearningPath{BaseModel: model.BaseModel{ID: id}, Title: title, IsPublished: true}
	for i, cid := range courseIDs {
		p.Courses = append(p.Courses, model.LearningPathCourse{ID: f.store.next(), PathID: id, CourseID: cid, Position: i})
	}
	f.store.data.paths[id] = p
	return id
}

func lockedFlags(t *testing.T, view *PathProgressView) []bool {
	t.Helper()
	out := make([]bool, len(view.Courses))
	for i, c := range view.Courses {
		out[i] = c.IsLocked
	}
	return out
}

func equalFlags(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPathGatingOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, aLessons := f.addCourse("A", 1)
	b, bLessons := f.addCourse("B", 1)
	c, cLessons := f.addCourse("C", 1)
	pathID := f.addPath("Go 工程师", a, b, c)

	if _, err := f.paths.EnrollCourseInPath(ctx, f.learner, pathID, a); !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("enroll course before path err = %v, want ErrNotEnrolled", err)
	}
	if _, err := f.paths.EnrollPath(ctx, f.learner, pathID); err != nil {
		t.Fatalf("EnrollPath: %v", err)
	}
	if _, err := f.paths.EnrollPath(ctx, f.learner, pathID); !errors.Is(err, util.ErrAlreadyEnrolled) {
		t.Fatalf("EnrollPath twice err = %v", err)
	}

	view, _ := f.paths.PathProgress(ctx, f.learner, pathID)
	if got := lockedFlags(t, view); !equalFlags(got, []bool{false, true, true}) {
		t.Fatalf("initial locks = %v", got)
	}
	if len(f.store.data.enrollments) != 0 {
		t.Fatal("path enrollment must not auto-enroll courses")
	}

	for _, locked := range []uint{b, c} {
		if _, err := f.paths.EnrollCourseInPath(ctx, f.learner, pathID, locked); !errors.Is(err, util.ErrCourseLocked) {
			t.Fatalf("enroll locked course %d err = %v", locked, err)
		}
		if _, err := f.progress.EnrollCourse(ctx, f.learner, locked); !errors.Is(err, util.ErrCourseLocked) {
			t.Fatalf("standalone enroll locked course %d err = %v", locked, err)
		}
	}

	if _, err := f.paths.EnrollCourseInPath(ctx, f.learner, pathID, a); err != nil {
		t.Fatalf("enroll A: %v", err)
	}
	f.progress.CompleteLesson(ctx, f.learner, aLessons[0])

	view, _ = f.paths.PathProgress(ctx, f.learner, pathID)
	if got := lockedFlags(t, view); !equalFlags(got, []bool{false, false, true}) {
		t.Fatalf("after A locks = %v", got)
	}
	if view.Completed != 1 || view.IsComplete {
		t.Fatalf("after A: completed=%d complete=%v", view.Completed, view.IsComplete)
	}

	if _, err := f.paths.EnrollCourseInPath(ctx, f.learner, pathID, b); err != nil {
		t.Fatalf("enroll B: %v", err)
	}
	f.progress.CompleteLesson(ctx, f.learner, bLessons[0])
	if _, err := f.progress.EnrollCourse(ctx, f.learner, c); err != nil {
		t.Fatalf("standalone enroll C once unlocked: %v", err)
	}
	f.progress.CompleteLesson(ctx, f.learner, cLessons[0])

	view, _ = f.paths.PathProgress(ctx, f.learner, pathID)
	if !view.IsComplete || view.Enrollment.Status != model.PathEnrollmentCompleted {
		t.Fatalf("path not completed: %+v", view)
	}

	var pathCerts int
	for _, cert := range f.certificates(f.learner) {
		if cert.Type == model.CertificatePath && cert.ReferenceID == pathID {
			pathCerts++
		}
	}
	if pathCerts != 1 {
		t.Errorf("path certificates = %d, want 1", pathCerts)
	}
	if got := f.hook.count(EventPathCompleted); got != 1 {
		t.Errorf("path completed events = %d, want 1", got)
	}
	if u := f.store.data.users[f.learner]; u.Points != 3*100+500 {
		t.Errorf("balance = %d, want 800", u.Points)
	}
}

func TestPathGatingIgnoresOutOfOrderCompletion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, _ := f.addCourse("A", 1)
	b, bLessons := f.addCourse("B", 1)
	c, _ := f.addCourse("C", 1)

	// 先在路径之外学完 B
	f.progress.EnrollCourse(ctx, f.learner, b)
	f.progress.CompleteLesson(ctx, f.learner, bLessons[0])

	pathID := f.addPath("P", a, b, c)
	f.paths.EnrollPath(ctx, f.learner, pathID)
	view, _ := f.paths.PathProgress(ctx, f.learner, pathID)
	if got := lockedFlags(t, view); !equalFlags(got, []bool{false, true, false}) {
		t.Fatalf("locks = %v, want [false true false]", got)
	}
	if !view.Courses[1].IsCompleted || view.IsComplete {
		t.Errorf("B should show completed while the path stays open: %+v", view.Courses)
	}
}

func TestEnrollPathAlreadyFinished(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, aLessons := f.addCourse("A", 1)
	f.progress.EnrollCourse(ctx, f.learner, a)
	f.progress.CompleteLesson(ctx, f.learner, aLessons[0])

	pathID := f.addPath("P", a)
	pe, err := f.paths.EnrollPath(ctx, f.learner, pathID)
	if err != nil {
		t.Fatalf("EnrollPath: %v", err)
	}
	if pe.Status != model.PathEnrollmentCompleted || pe.CompletedAt == nil {
		t.Errorf("path enrollment = %+v, want completed on enroll", pe)
	}
}

func TestEmptyPathNeverCompletes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pathID := f.addPath("Empty")
	pe, err := f.paths.EnrollPath(ctx, f.learner, pathID)
	if err != nil {
		t.Fatalf("EnrollPath: %v", err)
	}
	if pe.Status == model.PathEnrollmentCompleted {
		t.Error("empty path completed")
	}
}

func TestEnrollCourseNotInPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, _ := f.addCourse("A", 1)
	other, _ := f.addCourse("Other", 1)
	pathID := f.addPath("P", a)
	f.paths.EnrollPath(ctx, f.learner, pathID)

	if _, err := f.paths.EnrollCourseInPath(ctx, f.learner, pathID, other); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("err = %v, want ErrCourseNotFound", err)
	}
	// 不在任何已加入路径中的课程可以单独报名
	if _, err := f.progress.EnrollCourse(ctx, f.learner, other); err != nil {
		t.Fatalf("standalone enroll: %v", err)
	}
}

func TestCreatePathKeepsCourseOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, _ := f.addCourse("A", 1)
	b, _ := f.addCourse("B", 1)

	path, err := f.paths.Create(ctx, PathInput{Title: "P", CourseIDs: []uint{b, a}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ids := path.CourseIDs(); len(ids) != 2 || ids[0] != b || ids[1] != a {
		t.Errorf("course ids = %v, want [%d %d]", ids, b, a)
	}
	if path.IsPublished {
		t.Error("new path should start as a draft")
	}
}

func TestCreatePathRollsBackWhenCoursesFail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, _ := f.addCourse("A", 1)
	writeErr := errors.New("connection reset")
	f.store.failOn["ReplacePathCourses"] = writeErr

	if _, err := f.paths.Create(ctx, PathInput{Title: "P", CourseIDs: []uint{a}}); !errors.Is(err, writeErr) {
		t.Fatalf("Create err = %v, want %v", err, writeErr)
	}
	if n := len(f.store.data.paths); n != 0 {
		t.Errorf("paths after failed create = %d, want 0", n)
	}
}

func TestCreatePathRejectsUnknownCourse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, _ := f.addCourse("A", 1)

	_, err := f.paths.Create(ctx, PathInput{Title: "P", CourseIDs: []uint{a, 9999}})
	var verr *util.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if n := len(f.store.data.paths); n != 0 {
		t.Errorf("paths = %d, want 0", n)
	}
}

func TestUpdatePathCompletesLearnersWhoFinishedRemainingCourses(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, aLessons := f.addCourse("A", 1)
	b, _ := f.addCourse("B", 1)
	pathID := f.addPath("P", a, b)

	f.paths.EnrollPath(ctx, f.learner, pathID)
	if _, err := f.paths.EnrollCourseInPath(ctx, f.learner, pathID, a); err != nil {
		t.Fatalf("enroll A: %v", err)
	}
	f.progress.CompleteLesson(ctx, f.learner, aLessons[0])
	if got := f.hook.count(EventPathCompleted); got != 0 {
		t.Fatalf("path completed before B: %d events", got)
	}

	if _, err := f.paths.Update(ctx, pathID, PathInput{Title: "P", CourseIDs: []uint{a}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	pe, _ := f.store.FindPathEnrollment(f.learner, pathID)
	if pe.Status != model.PathEnrollmentCompleted || pe.CompletedAt == nil {
		t.Fatalf("path enrollment = %+v, want completed", pe)
	}
	if got := f.hook.count(EventPathCompleted); got != 1 {
		t.Errorf("path completed events = %d, want 1", got)
	}
	var pathCerts int
	for _, cert := range f.certificates(f.learner) {
		if cert.Type == model.CertificatePath && cert.ReferenceID == pathID {
			pathCerts++
		}
	}
	if pathCerts != 1 {
		t.Errorf("path certificates = %d, want 1", pathCerts)
	}

	// 再次保存不会重复发放
	if _, err := f.paths.Update(ctx, pathID, PathInput{Title: "P2", CourseIDs: []uint{a}}); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if got := f.hook.count(EventPathCompleted); got != 1 {
		t.Errorf("path completed events after resave = %d, want 1", got)
	}
}

func TestUpdatePathRollsBackWhenCoursesFail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, _ := f.addCourse("A", 1)
	b, _ := f.addCourse("B", 1)
	pathID := f.addPath("P", a, b)
	f.store.failOn["ReplacePathCourses"] = errors.New("connection reset")

	if _, err := f.paths.Update(ctx, pathID, PathInput{Title: "renamed", CourseIDs: []uint{b}}); err == nil {
		t.Fatal("Update should fail")
	}
	path, _ := f.store.FindPathWithCourses(pathID)
	if path.Title != "P" || len(path.Courses) != 2 {
		t.Errorf("path after failed update = %q with %d courses, want unchanged", path.Title, len(path.Courses))
	}
}

func TestPublishEmptyPathRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	path, err := f.paths.Create(ctx, PathInput{Title: "Empty"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = f.paths.SetPublished(ctx, path.ID, true)
	var verr *util.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("publish empty path err = %v, want validation error", err)
	}
}
