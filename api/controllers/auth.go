package controllers

import (
	"net/http"

	"github.com/rohanjoshi-dev/bitekart-backend/api/responses"
	"github.com/rohanjoshi-dev/bitekart-backend/api/validators"
	authsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/auth"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Password string  `json:"password" validate:"required,min=8"`
}

type sessionResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	VendorID *int64 `json:"vendor_id,omitempty"`
}

func newSessionResponse(session *authsvc.Session) sessionResponse {
	return sessionResponse{
		Token:    session.Token,
		UserID:   session.UserID,
		Name:     session.Name,
		Email:    session.Email,
		Role:     string(session.Role),
		VendorID: session.VendorID,
	}
}

// AuthLogin exchanges credentials for an access token.
func AuthLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), authsvc.LoginInput{
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

// AuthRegister creates a customer account and logs it in.
func AuthRegister(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Register(r.Context(), authsvc.RegisterInput{
			Name:     validators.SanitizeString(payload.Name, 120),
			Email:    payload.Email,
			Phone:    payload.Phone,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(session))
	}
}
