package service

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"tagwise-console/internal/event"
	"tagwise-console/internal/model"
)

const maxAnnotationRunes = 200

type TaskAPI interface {
	TasksForAnnotator(ctx context.Context, annotatorID string) ([]model.Task, error)
	Task(ctx context.Context, id int64) (model.Task, error)
	Annotate(ctx context.Context, taskID int64, annotatorID string, annotation string) (model.Task, error)
}

type TaskService struct {
	api TaskAPI
	bus event.Bus
}

func NewTaskService(api TaskAPI, bus event.Bus) *TaskService {
	return &TaskService{api: api, bus: bus}
}

// MyTasks lists the signed-in annotator's tasks, open ones first.
func (s *TaskService) MyTasks(ctx context.Context, identity model.Identity) ([]model.Task, model.TaskProgress, error) {
	tasks, err := s.api.TasksForAnnotator(ctx, identity.UserID)
	if err != nil {
		return nil, model.TaskProgress{}, err
	}

	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		if a.Completed == b.Completed {
			return 0
		}
		if !a.Completed {
			return -1
		}
		return 1
	})

	return tasks, model.ProgressOf(tasks), nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	task, err := s.api.Task(ctx, id)
	if err != nil {
		return model.Task{}, notFound(err, model.ErrTaskNotFound)
	}
	return task, nil
}

// Annotate records the label. When the task carries its dataset's classes
// the label must be one of them.
func (s *TaskService) Annotate(ctx context.Context, identity model.Identity, taskID int64, annotation string) (model.Task, error) {
	annotation = strings.TrimSpace(annotation)
	if annotation == "" {
		return model.Task{}, badRequest("Choose a label before submitting.")
	}
	if utf8.RuneCountInString(annotation) > maxAnnotationRunes {
		return model.Task{}, badRequest("The annotation is too long.")
	}

	task, err := s.Get(ctx, taskID)
	if err != nil {
		return model.Task{}, err
	}

	if classes := task.ClassList(); len(classes) > 0 && !slices.Contains(classes, annotation) {
		return model.Task{}, badRequest("The label must be one of: " + strings.Join(classes, ", ") + ".")
	}

	updated, err := s.api.Annotate(ctx, taskID, identity.UserID, annotation)
	if err != nil {
		return model.Task{}, notFound(err, model.ErrTaskNotFound)
	}

	event.Publish(s.bus, event.New(event.TypeTaskAnnotated, identity.Email, map[string]any{"taskId": taskID}))
	return updated, nil
}
