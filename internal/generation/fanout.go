package generation

import "photoshoot-server/internal/domain"

// Task is one (photo, scenario) pair requiring one synthesis call.
type Task struct {
	Photo    domain.SourcePhoto
	Scenario string
}

// ExpandTasks crosses the photo set with the scenario set, photo-outer so the
// resulting order is stable for partial-failure reporting. It is a pure
// function and fails only on an empty input set.
func ExpandTasks(photos []domain.SourcePhoto, scenarios []string) ([]Task, error) {
	if len(photos) == 0 {
		return nil, domain.ErrEmptyPhotoSet
	}
	if len(scenarios) == 0 {
		return nil, domain.ErrEmptyScenarioSet
	}

	tasks := make([]Task, 0, len(photos)*len(scenarios))
	for _, photo := range photos {
		for _, scenario := range scenarios {
			tasks = append(tasks, Task{Photo: photo, Scenario: scenario})
		}
	}
	return tasks, nil
}
