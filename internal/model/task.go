package model

type Task struct {
	ID          int64  `json:"id"`
	DatasetID   int64  `json:"datasetId"`
	AnnotatorID int64  `json:"annotatorId"`
	Text1       string `json:"text1"`
	Text2       string `json:"text2"`
	Annotation  string `json:"annotation,omitempty"`
	Completed   bool   `json:"completed"`
	// Classes is the dataset label list when the backend includes it.
	Classes string `json:"classes,omitempty"`
}

func (t Task) ClassList() []string {
	return SplitClasses(t.Classes)
}

type DashboardStats struct {
	Datasets       int   `json:"datasets"`
	Annotators     int   `json:"annotators"`
	Tasks          int64 `json:"tasks"`
	CompletedTasks int64 `json:"completedTasks"`
}

func (s DashboardStats) CompletionPercentage() float64 {
	if s.Tasks <= 0 {
		return 0
	}

	return float64(s.CompletedTasks) * 100 / float64(s.Tasks)
}

type TaskProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

func ProgressOf(tasks []Task) TaskProgress {
	progress := TaskProgress{Total: len(tasks)}
	for _, task := range tasks {
		if task.Completed {
			progress.Completed++
		}
	}

	return progress
}
