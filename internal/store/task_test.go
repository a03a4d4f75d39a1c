package store

import (
	"context"
	"testing"
	"time"

	"github.com/mholloway/daybreak/internal/model"
)

func TestTaskCreateListAndDone(t *testing.T) {
	s := NewTaskStore(testDB(t))
	ctx := context.Background()

	deadline := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	task, err := s.Create(ctx, &model.Task{UserID: 1, Name: "File taxes", Deadline: &deadline})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := s.Create(ctx, &model.Task{UserID: 1, Name: "Someday"}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	tasks, err := s.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].Name != "File taxes" {
		t.Errorf("first task = %q, want deadline-bearing task first", tasks[0].Name)
	}

	task.Done = true
	updated, err := s.Update(ctx, task)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if !updated.Done {
		t.Error("done flag did not stick")
	}

	tasks, err = s.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if tasks[0].Done {
		t.Error("open tasks should sort before done tasks")
	}
}

func TestTagDeleteDetachesTasks(t *testing.T) {
	db := testDB(t)
	tasks := NewTaskStore(db)
	tags := NewTagStore(db)
	ctx := context.Background()

	tag, err := tags.Create(ctx, 1, "errands", model.ColourGreen)
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	task, err := tasks.Create(ctx, &model.Task{UserID: 1, Name: "Groceries", TagID: &tag.ID})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.TagID == nil || *task.TagID != tag.ID {
		t.Fatalf("task tag = %v, want %d", task.TagID, tag.ID)
	}

	if err := tags.Delete(ctx, 1, tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	got, err := tasks.GetByID(ctx, 1, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got == nil {
		t.Fatal("task should survive tag deletion")
	}
	if got.TagID != nil {
		t.Errorf("task tag = %v after tag delete, want nil", *got.TagID)
	}
}

func TestTagListSortedByName(t *testing.T) {
	s := NewTagStore(testDB(t))
	ctx := context.Background()

	for _, name := range []string{"work", "errands", "health"} {
		if _, err := s.Create(ctx, 1, name, model.ColourBlue); err != nil {
			t.Fatalf("create tag %q: %v", name, err)
		}
	}

	tags, err := s.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("got %d tags, want 3", len(tags))
	}
	if tags[0].Name != "errands" || tags[2].Name != "work" {
		t.Errorf("tags not sorted by name: %v", tags)
	}
}
