package recommend

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lifetrack/lifetrack/internal/core"
)

// minTrainingSamples is the smallest completed-task history a model can be
// trained from.
const minTrainingSamples = 10

// featureCount is the length of a task feature vector: category success
// rate, due-date proximity, hour of day, category volume, focus flag.
const featureCount = 5

// PriorityModel predicts a priority for new tasks from the user's completed
// task history. The trained artifact is a set of per-priority feature
// centroids, persisted as JSON and versioned by training timestamp. It is
// loaded once at startup and read-only during prediction; retraining is an
// explicit batch operation.
type PriorityModel struct {
	Version   string                      `json:"version"` // RFC3339 training timestamp
	TrainedAt time.Time                   `json:"trained_at"`
	Samples   int                         `json:"samples"`
	Centroids map[core.Priority][]float64 `json:"centroids"`
}

// LoadPriorityModel reads a trained model from disk. A missing file is not
// an error; it returns (nil, nil) and callers use the heuristic fallback.
func LoadPriorityModel(path string) (*PriorityModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var m PriorityModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	for p, c := range m.Centroids {
		if len(c) != featureCount {
			return nil, fmt.Errorf("model centroid for %s has %d features, want %d", p, len(c), featureCount)
		}
	}
	return &m, nil
}

// Save writes the model artifact to disk.
func (m *PriorityModel) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// TrainPriorityModel builds per-priority centroids from completed tasks.
// Requires at least 10 completed tasks.
func TrainPriorityModel(tasks []core.Task, now time.Time) (*PriorityModel, error) {
	var done []core.Task
	for _, t := range tasks {
		if t.Status == core.TaskStatusDone {
			done = append(done, t)
		}
	}
	if len(done) < minTrainingSamples {
		return nil, fmt.Errorf("%w: have %d completed tasks, need %d",
			core.ErrInsufficientSamples, len(done), minTrainingSamples)
	}

	sums := make(map[core.Priority][]float64)
	counts := make(map[core.Priority]int)
	for _, t := range done {
		features := taskFeatures(t, done, now)
		p := t.Priority
		if p == "" {
			p = core.PriorityMedium
		}
		if sums[p] == nil {
			sums[p] = make([]float64, featureCount)
		}
		for i, f := range features {
			sums[p][i] += f
		}
		counts[p]++
	}

	centroids := make(map[core.Priority][]float64, len(sums))
	for p, sum := range sums {
		centroid := make([]float64, featureCount)
		for i := range sum {
			centroid[i] = sum[i] / float64(counts[p])
		}
		centroids[p] = centroid
	}

	return &PriorityModel{
		Version:   now.UTC().Format(time.RFC3339),
		TrainedAt: now.UTC(),
		Samples:   len(done),
		Centroids: centroids,
	}, nil
}

// Predict returns the priority whose centroid is nearest to the task's
// feature vector. history supplies category statistics.
func (m *PriorityModel) Predict(task core.Task, history []core.Task, now time.Time) core.Priority {
	features := taskFeatures(task, history, now)

	best := core.PriorityMedium
	bestDist := math.Inf(1)

	// Deterministic iteration order.
	priorities := make([]core.Priority, 0, len(m.Centroids))
	for p := range m.Centroids {
		priorities = append(priorities, p)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

	for _, p := range priorities {
		var dist float64
		for i, c := range m.Centroids[p] {
			d := features[i] - c
			dist += d * d
		}
		if dist < bestDist {
			bestDist = dist
			best = p
		}
	}
	return best
}

// FallbackPriority is the heuristic used when no trained model exists:
// priority follows due-date proximity alone.
func FallbackPriority(task core.Task, now time.Time) core.Priority {
	if task.DueDate == nil {
		return core.PriorityMedium
	}
	daysUntil := core.DaysBetween(now, *task.DueDate)
	switch {
	case daysUntil < 1:
		return core.PriorityHigh
	case daysUntil < 3:
		return core.PriorityMedium
	default:
		return core.PriorityLow
	}
}

// taskFeatures encodes a task as a normalized feature vector against the
// user's task history.
func taskFeatures(task core.Task, history []core.Task, now time.Time) []float64 {
	var categoryTotal, categoryDone int
	for _, t := range history {
		if t.Category != task.Category {
			continue
		}
		categoryTotal++
		if t.Status == core.TaskStatusDone {
			categoryDone++
		}
	}

	categoryRate := 0.5
	if categoryTotal > 0 {
		categoryRate = float64(categoryDone) / float64(categoryTotal)
	}

	dueProximity := 0.0
	if task.DueDate != nil {
		daysUntil := core.DaysBetween(now, *task.DueDate)
		if daysUntil > 0 {
			dueProximity = math.Min(float64(daysUntil)/30, 1.0)
		}
	}

	focus := 0.0
	if task.IsFocus {
		focus = 1.0
	}

	return []float64{
		categoryRate,
		dueProximity,
		float64(now.Hour()) / 24,
		math.Min(float64(categoryTotal)/100, 1.0),
		focus,
	}
}
