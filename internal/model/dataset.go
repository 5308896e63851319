package model

import (
	"io"
	"strings"
)

type DatasetSummary struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	CompletionPercentage float64 `json:"completionPercentage"`
	Classes              string  `json:"classes"`
	Description          string  `json:"description,omitempty"`
}

type TextPair struct {
	ID    int64  `json:"id"`
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

type AssignedAnnotator struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	CompletedTasks int64  `json:"completedTasks"`
}

type DatasetDetails struct {
	ID                   int64               `json:"id"`
	Name                 string              `json:"name"`
	Description          string              `json:"description,omitempty"`
	Classes              string              `json:"classes"`
	CompletionPercentage float64             `json:"completionPercentage"`
	TotalPairs           int                 `json:"totalPairs"`
	SamplePairs          []TextPair          `json:"samplePairs"`
	AssignedAnnotators   []AssignedAnnotator `json:"assignedAnnotators"`
}

func (d DatasetDetails) ClassList() []string {
	return SplitClasses(d.Classes)
}

// SplitClasses parses the semicolon-separated label list of a dataset.
func SplitClasses(raw string) []string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}

// DatasetUpload is a CSV of text pairs plus its metadata, as submitted by an
// administrator.
type DatasetUpload struct {
	Name        string
	Classes     string
	Description string
	FileName    string
	Content     io.Reader
}

type CreatedDataset struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}
