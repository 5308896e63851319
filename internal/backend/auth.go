package backend

import (
	"context"
	"net/http"

	"tagwise-console/internal/model"
)

// Auth endpoints never carry a token, so a 401 here is a credential failure
// reported through *apierror.APIError, not the global 401 contract.

func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return model.LoginResponse{}, err
	}

	var out model.LoginResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        c.authPrefix + "/login",
		body:        body,
		contentType: "application/json",
		fallback:    "Login failed. Please check your credentials.",
	}, &out)

	return out, err
}

func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (model.MessageResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return model.MessageResponse{}, err
	}

	return c.doMessage(ctx, request{
		method:      http.MethodPost,
		path:        c.authPrefix + "/signup",
		body:        body,
		contentType: "application/json",
		fallback:    "Signup failed. Please try again.",
	})
}

func (c *Client) VerifyEmail(ctx context.Context, req model.VerifyEmailRequest) (model.MessageResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return model.MessageResponse{}, err
	}

	return c.doMessage(ctx, request{
		method:      http.MethodPost,
		path:        c.authPrefix + "/verify-email",
		body:        body,
		contentType: "application/json",
		fallback:    "Email verification failed.",
	})
}

func (c *Client) ResendCode(ctx context.Context, req model.ResendCodeRequest) (model.MessageResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return model.MessageResponse{}, err
	}

	return c.doMessage(ctx, request{
		method:      http.MethodPost,
		path:        c.authPrefix + "/resend-code",
		body:        body,
		contentType: "application/json",
		fallback:    "Could not resend the verification code.",
	})
}
