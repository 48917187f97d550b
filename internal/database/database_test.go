package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/planwise/planwise/internal/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "planwise-test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *Database) *models.User {
	t.Helper()
	user := &models.User{Email: "Dev@Example.com", FullName: "Dev User"}
	if err := db.CreateUser(user, "hash"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func seedProject(t *testing.T, db *Database, userID string) *models.Project {
	t.Helper()
	project := &models.Project{
		UserID:     userID,
		Title:      "Learn Spanish",
		DailyHours: 2,
		IsActive:   true,
	}
	if err := db.CreateProject(project); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return project
}

func TestUserLifecycle(t *testing.T) {
	db := newTestDatabase(t)

	user := seedUser(t, db)
	if user.ID == "" {
		t.Fatal("CreateUser() did not assign an ID")
	}

	// Email lookup is case-insensitive because emails are stored lowercased.
	got, hash, err := db.GetUserByEmail("dev@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("GetUserByEmail() ID = %q, want %q", got.ID, user.ID)
	}
	if got.Email != "dev@example.com" {
		t.Errorf("GetUserByEmail() Email = %q, want lowercased", got.Email)
	}
	if hash != "hash" {
		t.Errorf("GetUserByEmail() hash = %q, want %q", hash, "hash")
	}

	if err := db.CreateUser(&models.User{Email: "dev@example.com"}, "other"); err == nil {
		t.Error("CreateUser() with duplicate email should fail")
	}

	if err := db.UpdateUserPassword(user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword() error = %v", err)
	}
	_, hash, err = db.GetUserByEmail(user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if hash != "newhash" {
		t.Errorf("hash after update = %q, want %q", hash, "newhash")
	}

	if _, err := db.GetUser("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}
}

func TestProjectLifecycle(t *testing.T) {
	db := newTestDatabase(t)
	user := seedUser(t, db)

	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	project := &models.Project{
		UserID:      user.ID,
		Title:       "Learn Spanish",
		Description: "Conversational fluency",
		Deadline:    &deadline,
		DailyHours:  1.5,
		IsActive:    true,
	}
	if err := db.CreateProject(project); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	got, err := db.GetProject(project.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.Title != project.Title || got.Description != project.Description {
		t.Errorf("GetProject() = %+v, want title/description preserved", got)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("GetProject() Deadline = %v, want %v", got.Deadline, deadline)
	}
	if got.DailyHours != 1.5 {
		t.Errorf("GetProject() DailyHours = %v, want 1.5", got.DailyHours)
	}

	got.Title = "Learn Spanish (B2)"
	got.Deadline = nil
	if err := db.UpdateProject(got); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	updated, err := db.GetProject(project.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if updated.Title != "Learn Spanish (B2)" {
		t.Errorf("Title after update = %q", updated.Title)
	}
	if updated.Deadline != nil {
		t.Errorf("Deadline after clearing = %v, want nil", updated.Deadline)
	}

	second := &models.Project{UserID: user.ID, Title: "Run a marathon", IsActive: true}
	second.CreatedAt = time.Now().Add(time.Hour)
	if err := db.CreateProject(second); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	projects, err := db.ListProjectsByUser(user.ID)
	if err != nil {
		t.Fatalf("ListProjectsByUser() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("ListProjectsByUser() returned %d projects, want 2", len(projects))
	}
	if projects[0].ID != second.ID {
		t.Errorf("ListProjectsByUser() not newest-first: got %q first", projects[0].Title)
	}

	if err := db.DeleteProject(project.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := db.GetProject(project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProject(deleted) error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteProject(project.ID); err == nil {
		t.Error("DeleteProject() twice should fail")
	}
}

func TestTaskOrderingAndStatus(t *testing.T) {
	db := newTestDatabase(t)
	user := seedUser(t, db)
	project := seedProject(t, db, user.ID)

	batch := []*models.Task{
		{ProjectID: project.ID, Title: "Alphabet and sounds", OrderIndex: 0, EstimatedHours: 1},
		{ProjectID: project.ID, Title: "Greetings", OrderIndex: 1, EstimatedHours: 0.5},
		{ProjectID: project.ID, Title: "Present tense verbs", OrderIndex: 2, EstimatedHours: 2},
	}
	if err := db.CreateTasks(batch); err != nil {
		t.Fatalf("CreateTasks() error = %v", err)
	}

	tasks, err := db.ListTasksByProject(project.ID)
	if err != nil {
		t.Fatalf("ListTasksByProject() error = %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("ListTasksByProject() returned %d tasks, want 3", len(tasks))
	}
	for i, task := range tasks {
		if task.OrderIndex != i {
			t.Errorf("task %d OrderIndex = %d", i, task.OrderIndex)
		}
		if task.Status != models.TaskStatusPending {
			t.Errorf("task %q status = %q, want pending", task.Title, task.Status)
		}
	}

	tasks[0].Status = models.TaskStatusCompleted
	if err := db.UpdateTask(tasks[0]); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	tasks[2].Status = models.TaskStatusCompleted
	if err := db.UpdateTask(tasks[2]); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	completed, err := db.ListCompletedTasks(project.ID)
	if err != nil {
		t.Fatalf("ListCompletedTasks() error = %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("ListCompletedTasks() returned %d tasks, want 2", len(completed))
	}
	if completed[0].Title != "Alphabet and sounds" || completed[1].Title != "Present tense verbs" {
		t.Errorf("ListCompletedTasks() order = %q, %q", completed[0].Title, completed[1].Title)
	}

	if err := db.DeleteTask(tasks[1].ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := db.GetTask(tasks[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestCountTasksByStatus(t *testing.T) {
	db := newTestDatabase(t)
	user := seedUser(t, db)
	project := seedProject(t, db, user.ID)

	counts, err := db.CountTasksByStatus()
	if err != nil {
		t.Fatalf("CountTasksByStatus() error = %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("CountTasksByStatus() on empty table = %v, want empty", counts)
	}

	batch := []*models.Task{
		{ProjectID: project.ID, Title: "Alphabet", OrderIndex: 0},
		{ProjectID: project.ID, Title: "Greetings", OrderIndex: 1},
		{ProjectID: project.ID, Title: "Verbs", OrderIndex: 2},
	}
	if err := db.CreateTasks(batch); err != nil {
		t.Fatalf("CreateTasks() error = %v", err)
	}
	batch[0].Status = models.TaskStatusCompleted
	if err := db.UpdateTask(batch[0]); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	counts, err = db.CountTasksByStatus()
	if err != nil {
		t.Fatalf("CountTasksByStatus() error = %v", err)
	}
	if counts[models.TaskStatusPending] != 2 {
		t.Errorf("pending count = %d, want 2", counts[models.TaskStatusPending])
	}
	if counts[models.TaskStatusCompleted] != 1 {
		t.Errorf("completed count = %d, want 1", counts[models.TaskStatusCompleted])
	}
	if counts[models.TaskStatusSkipped] != 0 {
		t.Errorf("skipped count = %d, want 0", counts[models.TaskStatusSkipped])
	}
}

func TestTaskImageURLsRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	user := seedUser(t, db)
	project := seedProject(t, db, user.ID)

	task := &models.Task{
		ProjectID: project.ID,
		Title:     "Flashcards",
		ImageURLs: []string{"/files/u1/a.png", "/files/u1/b.png"},
	}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if len(got.ImageURLs) != 2 || got.ImageURLs[0] != "/files/u1/a.png" {
		t.Errorf("ImageURLs = %v", got.ImageURLs)
	}

	got.ImageURLs = nil
	if err := db.UpdateTask(got); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	got, err = db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.ImageURLs != nil {
		t.Errorf("ImageURLs after clearing = %v, want nil", got.ImageURLs)
	}
}

func TestCurriculumLatestWins(t *testing.T) {
	db := newTestDatabase(t)
	user := seedUser(t, db)
	project := seedProject(t, db, user.ID)

	if _, err := db.LatestCurriculum(project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestCurriculum(empty) error = %v, want ErrNotFound", err)
	}

	older := &models.Curriculum{
		ProjectID:   project.ID,
		Topics:      map[string]interface{}{"overview": "first pass"},
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	newer := &models.Curriculum{
		ProjectID:   project.ID,
		Topics:      map[string]interface{}{"overview": "second pass"},
		GeneratedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	if err := db.CreateCurriculum(older); err != nil {
		t.Fatalf("CreateCurriculum() error = %v", err)
	}
	if err := db.CreateCurriculum(newer); err != nil {
		t.Fatalf("CreateCurriculum() error = %v", err)
	}

	got, err := db.LatestCurriculum(project.ID)
	if err != nil {
		t.Fatalf("LatestCurriculum() error = %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("LatestCurriculum() ID = %q, want newest %q", got.ID, newer.ID)
	}
	if got.Topics["overview"] != "second pass" {
		t.Errorf("LatestCurriculum() Topics = %v", got.Topics)
	}
}

func TestDailyLogUpsert(t *testing.T) {
	db := newTestDatabase(t)
	user := seedUser(t, db)
	project := seedProject(t, db, user.ID)

	first := &models.DailyLog{
		ProjectID:        project.ID,
		LogDate:          "2026-03-09",
		CompletedTaskIDs: []string{"t1"},
		CompletedHours:   1,
		Notes:            "morning session",
	}
	if err := db.UpsertDailyLog(first); err != nil {
		t.Fatalf("UpsertDailyLog() error = %v", err)
	}

	// Second save for the same day replaces the entry.
	second := &models.DailyLog{
		ProjectID:        project.ID,
		LogDate:          "2026-03-09",
		CompletedTaskIDs: []string{"t1", "t2"},
		CompletedHours:   2.5,
		Notes:            "evening session too",
	}
	if err := db.UpsertDailyLog(second); err != nil {
		t.Fatalf("UpsertDailyLog() error = %v", err)
	}

	other := &models.DailyLog{ProjectID: project.ID, LogDate: "2026-03-10", CompletedHours: 0.5}
	if err := db.UpsertDailyLog(other); err != nil {
		t.Fatalf("UpsertDailyLog() error = %v", err)
	}

	logs, err := db.ListDailyLogsByProject(project.ID)
	if err != nil {
		t.Fatalf("ListDailyLogsByProject() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("ListDailyLogsByProject() returned %d logs, want 2", len(logs))
	}
	if logs[0].LogDate != "2026-03-10" {
		t.Errorf("logs not newest-first: got %q first", logs[0].LogDate)
	}
	merged := logs[1]
	if merged.CompletedHours != 2.5 || len(merged.CompletedTaskIDs) != 2 || merged.Notes != "evening session too" {
		t.Errorf("upserted log = %+v, want second save to win", merged)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	db := newTestDatabase(t)
	user := seedUser(t, db)
	project := seedProject(t, db, user.ID)

	task := &models.Task{ProjectID: project.ID, Title: "Greetings"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if err := db.CreateCurriculum(&models.Curriculum{
		ProjectID: project.ID,
		Topics:    map[string]interface{}{"overview": "x"},
	}); err != nil {
		t.Fatalf("CreateCurriculum() error = %v", err)
	}

	if err := db.DeleteProject(project.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := db.GetTask(task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask() after project delete error = %v, want ErrNotFound", err)
	}
	if _, err := db.LatestCurriculum(project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestCurriculum() after project delete error = %v, want ErrNotFound", err)
	}
}

func TestRebind(t *testing.T) {
	got := rebind("INSERT INTO t (a, b, c) VALUES (?, ?, ?)")
	want := "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"
	if got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}
}
