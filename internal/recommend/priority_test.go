package recommend

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/lifetrack/lifetrack/internal/core"
)

func completedWithPriority(priority core.Priority, category string, n int) []core.Task {
	var out []core.Task
	for i := 0; i < n; i++ {
		done := testToday
		out = append(out, core.Task{
			ID:          core.TaskID(category),
			Category:    category,
			Status:      core.TaskStatusDone,
			Priority:    priority,
			CompletedAt: &done,
		})
	}
	return out
}

func TestTrainPriorityModel_InsufficientSamples(t *testing.T) {
	tasks := completedWithPriority(core.PriorityHigh, "work", 9)

	_, err := TrainPriorityModel(tasks, testToday)
	if !errors.Is(err, core.ErrInsufficientSamples) {
		t.Errorf("error = %v, want ErrInsufficientSamples", err)
	}
}

func TestTrainPriorityModel_IgnoresPendingTasks(t *testing.T) {
	tasks := completedWithPriority(core.PriorityHigh, "work", 9)
	for i := 0; i < 5; i++ {
		tasks = append(tasks, core.Task{Status: core.TaskStatusPending, Priority: core.PriorityHigh})
	}

	_, err := TrainPriorityModel(tasks, testToday)
	if !errors.Is(err, core.ErrInsufficientSamples) {
		t.Error("pending tasks must not count toward the training minimum")
	}
}

func TestTrainPriorityModel_BuildsCentroids(t *testing.T) {
	tasks := append(
		completedWithPriority(core.PriorityHigh, "work", 6),
		completedWithPriority(core.PriorityLow, "hobby", 6)...,
	)

	model, err := TrainPriorityModel(tasks, testToday)
	if err != nil {
		t.Fatalf("TrainPriorityModel() error = %v", err)
	}

	if model.Samples != 12 {
		t.Errorf("Samples = %d, want 12", model.Samples)
	}
	if len(model.Centroids) != 2 {
		t.Fatalf("Centroids has %d priorities, want 2", len(model.Centroids))
	}
	for p, c := range model.Centroids {
		if len(c) != featureCount {
			t.Errorf("centroid for %s has %d features, want %d", p, len(c), featureCount)
		}
	}
	if model.Version == "" {
		t.Error("trained model must carry a version")
	}
}

func TestPriorityModel_SaveAndLoad(t *testing.T) {
	tasks := append(
		completedWithPriority(core.PriorityHigh, "work", 6),
		completedWithPriority(core.PriorityLow, "hobby", 6)...,
	)
	model, err := TrainPriorityModel(tasks, testToday)
	if err != nil {
		t.Fatalf("TrainPriorityModel() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "models", "priority.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadPriorityModel(path)
	if err != nil {
		t.Fatalf("LoadPriorityModel() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadPriorityModel() returned nil for an existing file")
	}
	if loaded.Version != model.Version || loaded.Samples != model.Samples {
		t.Errorf("loaded model differs: %+v vs %+v", loaded, model)
	}
}

func TestLoadPriorityModel_MissingFileIsNotAnError(t *testing.T) {
	model, err := LoadPriorityModel(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadPriorityModel() error = %v", err)
	}
	if model != nil {
		t.Error("missing file should return a nil model")
	}
}

func TestPriorityModel_PredictNearestCentroid(t *testing.T) {
	// High tasks were done without due dates, low tasks with distant ones,
	// so the centroids separate on the due-proximity feature.
	lows := completedWithPriority(core.PriorityLow, "hobby", 6)
	for i := range lows {
		due := testToday.AddDate(0, 0, 20)
		lows[i].DueDate = &due
	}
	history := append(completedWithPriority(core.PriorityHigh, "work", 6), lows...)

	model, err := TrainPriorityModel(history, testToday)
	if err != nil {
		t.Fatalf("TrainPriorityModel() error = %v", err)
	}

	task := core.Task{Category: "work", Status: core.TaskStatusPending}
	if got := model.Predict(task, history, testToday); got != core.PriorityHigh {
		t.Errorf("Predict() = %v, want high for a task with no due date", got)
	}

	farDue := testToday.AddDate(0, 0, 20)
	relaxed := core.Task{Category: "hobby", Status: core.TaskStatusPending, DueDate: &farDue}
	if got := model.Predict(relaxed, history, testToday); got != core.PriorityLow {
		t.Errorf("Predict() = %v, want low for a distant due date", got)
	}
}

func TestFallbackPriority(t *testing.T) {
	tests := []struct {
		name      string
		dueInDays *int
		want      core.Priority
	}{
		{name: "no due date", want: core.PriorityMedium},
		{name: "due today", dueInDays: intp(0), want: core.PriorityHigh},
		{name: "due in two days", dueInDays: intp(2), want: core.PriorityMedium},
		{name: "due next week", dueInDays: intp(7), want: core.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := core.Task{}
			if tt.dueInDays != nil {
				due := testToday.AddDate(0, 0, *tt.dueInDays)
				task.DueDate = &due
			}
			if got := FallbackPriority(task, testToday); got != tt.want {
				t.Errorf("FallbackPriority() = %v, want %v", got, tt.want)
			}
		})
	}
}
