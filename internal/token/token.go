// Package token reads the identity carried in a backend-issued session token.
//
// The signature is not verified here. The backend re-verifies the token on
// every authenticated call, so the decoded role only drives which pages the
// console offers; it is never an authorization boundary.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tagwise-console/internal/model"
)

var (
	ErrMalformed    = errors.New("malformed token")
	ErrMissingField = errors.New("token payload is missing a required field")
	ErrExpired      = errors.New("token expired")
)

// Claim names used by the backend when it issues a token.
const (
	ClaimSubject   = "sub"
	ClaimUserID    = "userId"
	ClaimEmail     = "email"
	ClaimFirstName = "firstName"
	ClaimLastName  = "lastName"
	ClaimGender    = "gender"
	ClaimRole      = "role"
	ClaimExpiry    = "exp"
)

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField.Error(), e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// Payload is the typed result of a successful decode.
type Payload struct {
	Subject   string
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Gender    string
	Role      model.Role
	ExpiresAt time.Time
}

var parser = jwt.NewParser()

// Decode extracts the payload of raw without verifying its signature. Any
// failure is reported as ErrMalformed; callers treat it exactly like a missing
// token.
func Decode(raw string) (*Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMalformed
	}

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	payload := &Payload{
		Subject:   stringClaim(claims, ClaimSubject),
		UserID:    idClaim(claims, ClaimUserID),
		Email:     stringClaim(claims, ClaimEmail),
		FirstName: stringClaim(claims, ClaimFirstName),
		LastName:  stringClaim(claims, ClaimLastName),
		Gender:    stringClaim(claims, ClaimGender),
		Role:      model.Role(stringClaim(claims, ClaimRole)),
	}
	if payload.Email == "" {
		// The backend puts the account email in the subject.
		payload.Email = payload.Subject
	}
	if exp != nil {
		payload.ExpiresAt = exp.Time
	}

	return payload, nil
}

// Validate reports the first absent identity field. A payload that fails
// validation must never produce an authenticated session.
func (p *Payload) Validate() error {
	if p == nil {
		return ErrMalformed
	}

	required := []struct {
		name  string
		value string
	}{
		{ClaimRole, string(p.Role)},
		{ClaimEmail, p.Email},
		{ClaimUserID, p.UserID},
		{ClaimFirstName, p.FirstName},
		{ClaimLastName, p.LastName},
		{ClaimGender, p.Gender},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return &MissingFieldError{Field: field.name}
		}
	}

	return nil
}

// Expired is true when the payload carries no expiry or the expiry has passed.
func (p *Payload) Expired(now time.Time) bool {
	if p == nil || p.ExpiresAt.IsZero() {
		return true
	}

	return !now.Before(p.ExpiresAt)
}

func (p *Payload) Identity() model.Identity {
	return model.Identity{
		UserID:    p.UserID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      p.Role,
		Gender:    p.Gender,
	}
}

// IsValid is true only for a decodable token whose expiry is still ahead of now.
func IsValid(raw string, now time.Time) bool {
	payload, err := Decode(raw)
	if err != nil {
		return false
	}

	return !payload.Expired(now)
}

// Check combines decode, field validation and the expiry test.
func Check(raw string, now time.Time) (*Payload, error) {
	payload, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	if err := payload.Validate(); err != nil {
		return nil, err
	}

	if payload.Expired(now) {
		return nil, ErrExpired
	}

	return payload, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	value, _ := claims[name].(string)
	return strings.TrimSpace(value)
}

// idClaim accepts numeric ids, which the backend emits for its Long keys.
func idClaim(claims jwt.MapClaims, name string) string {
	switch value := claims[name].(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}
