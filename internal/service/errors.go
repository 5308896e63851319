package service

import (
	"errors"
	"fmt"
	"net/http"

	"tagwise-console/pkg/apierror"
)

func badRequest(message string) error {
	return apierror.New("BAD_REQUEST", message, "", http.StatusBadRequest)
}

// notFound maps a backend 404 onto the domain sentinel so handlers can
// branch on it with errors.Is.
func notFound(err error, sentinel error) error {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusNotFound {
		return fmt.Errorf("%w: %s", sentinel, apiErr.Message)
	}
	return err
}
