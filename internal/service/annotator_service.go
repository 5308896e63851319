package service

import (
	"context"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"

	"tagwise-console/internal/model"
	"tagwise-console/internal/util"
)

const minPasswordLength = 8

type AnnotatorAPI interface {
	ListAnnotators(ctx context.Context) ([]model.Annotator, error)
	AddAnnotator(ctx context.Context, req model.SignupRequest) (model.Annotator, error)
	ValidateAnnotator(ctx context.Context, id int64) error
}

type AnnotatorService struct {
	api AnnotatorAPI
}

func NewAnnotatorService(api AnnotatorAPI) *AnnotatorService {
	return &AnnotatorService{api: api}
}

// List returns live accounts, pending validation first.
func (s *AnnotatorService) List(ctx context.Context) ([]model.Annotator, error) {
	all, err := s.api.ListAnnotators(ctx)
	if err != nil {
		return nil, err
	}

	out := slices.DeleteFunc(all, func(a model.Annotator) bool { return a.Deleted })
	slices.SortStableFunc(out, func(a, b model.Annotator) int {
		switch {
		case a.Enabled == b.Enabled:
			return strings.Compare(strings.ToLower(a.FullName()), strings.ToLower(b.FullName()))
		case !a.Enabled:
			return -1
		default:
			return 1
		}
	})
	return out, nil
}

func (s *AnnotatorService) Add(ctx context.Context, req model.SignupRequest) (model.Annotator, error) {
	req, err := NormalizeSignup(req)
	if err != nil {
		return model.Annotator{}, err
	}
	return s.api.AddAnnotator(ctx, req)
}

func (s *AnnotatorService) Validate(ctx context.Context, id int64) error {
	if err := s.api.ValidateAnnotator(ctx, id); err != nil {
		return notFound(err, model.ErrAnnotatorNotFound)
	}
	return nil
}

// NormalizeSignup trims the form and checks what the backend would reject,
// so the user sees the problem without a round trip.
func NormalizeSignup(req model.SignupRequest) (model.SignupRequest, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = util.SanitizeText(req.FirstName, 60)
	req.LastName = util.SanitizeText(req.LastName, 60)

	if _, err := mail.ParseAddress(req.Email); err != nil || strings.ContainsAny(req.Email, " <>") {
		return req, badRequest("Enter a valid email address.")
	}
	if req.FirstName == "" || req.LastName == "" {
		return req, badRequest("First and last name are required.")
	}

	gender, ok := model.ParseGender(string(req.Gender))
	if !ok {
		return req, badRequest("Select a gender.")
	}
	req.Gender = gender

	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return req, badRequest("The password must be at least 8 characters long.")
	}

	return req, nil
}
