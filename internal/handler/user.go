package handler

import (
	"it-asset-tracker/internal/middleware"
	"it-asset-tracker/internal/model"
	apperrors "it-asset-tracker/pkg/errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UserHandler handles login, password resets and account management.
type UserHandler struct {
	Service UserService
	Logger  *log.Logger

	ErrorHandler   *ErrorHandler
	ResponseHelper *ResponseHelper
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(svc UserService, logger *log.Logger) *UserHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &UserHandler{
		Service:        svc,
		Logger:         logger,
		ErrorHandler:   NewErrorHandler(logger),
		ResponseHelper: NewResponseHelper(),
	}
}

// LoginHandler exchanges credentials for an access token.
func (h *UserHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	var req loginRequest
	if !h.ErrorHandler.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "log in")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, result)
}

// ForgotPasswordHandler starts a password reset. The reply is the same
// whether or not the email belongs to an account.
func (h *UserHandler) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	var req forgotPasswordRequest
	if !h.ErrorHandler.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Service.ForgotPassword(ctx, req.Email); err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "request password reset")
		return
	}
	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "If the account exists, a reset link has been sent", nil)
}

// ResetPasswordHandler sets a new password using a reset token.
func (h *UserHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	var req resetPasswordRequest
	if !h.ErrorHandler.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Service.ResetPassword(ctx, req.Email, req.Token, req.Password); err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "reset password")
		return
	}
	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "Password has been reset", nil)
}

// ListUsersHandler lists every account.
func (h *UserHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	users, err := h.Service.ListUsers(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "retrieve users")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, h.ResponseHelper.CreateListResponseData(users, len(users), nil))
}

// CreateUserHandler creates an account.
func (h *UserHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	var input model.CreateUserInput
	if !h.ErrorHandler.DecodeJSON(w, r, &input) {
		return
	}

	user, err := h.Service.CreateUser(ctx, input)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "create user")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusCreated, user)
}

// UpdateUserHandler changes name, email, role or password of an account.
func (h *UserHandler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var input model.UpdateUserInput
	if !h.ErrorHandler.DecodeJSON(w, r, &input) {
		return
	}

	user, err := h.Service.UpdateUser(ctx, id, input)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "update user")
		return
	}
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, user)
}

// DeleteUserHandler removes an account other than the caller's own.
func (h *UserHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.ErrorHandler.HandleServiceError(w, apperrors.UnauthorizedError("authentication required"), "delete user")
		return
	}

	if err := h.Service.DeleteUser(ctx, claims.UserID, id); err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "delete user")
		return
	}
	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "User deleted", map[string]string{"id": id.String()})
}
