package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/30sweetener09/convenient-market-app-sub000/internal/api/respond"
	"github.com/30sweetener09/convenient-market-app-sub000/internal/auth"
)

const maxDeviceBody = 4 << 10

type registerDeviceRequest struct {
	Token    string `json:"token" validate:"required,max=4096,devicetoken"`
	Platform string `json:"platform" validate:"required,oneof=android ios web"`
}

type registerDeviceResponse struct {
	UserID   string `json:"user_id"`
	Platform string `json:"platform"`
}

// RegisterDevice stores the caller's push token.
// @Summary Register device token
// @Description Registers (or refreshes) a push token for the authenticated user.
// @Tags devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body registerDeviceRequest true "Device token"
// @Success 201 {object} registerDeviceResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/devices [post]
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing credentials")
		return
	}
	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		respond.WriteError(w, http.StatusUnauthorized, "INVALID_SUBJECT", "Token subject is not a user id")
		return
	}

	var req registerDeviceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDeviceBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON", err.Error())
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))

	if err := getValidator().Struct(req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid device registration", validationDetail(err))
		return
	}

	if _, err := h.pool.Exec(r.Context(), "upsert_device_token", userID.String(), req.Token, req.Platform); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to register device")
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, registerDeviceResponse{
		UserID:   userID.String(),
		Platform: req.Platform,
	})
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+": "+fe.Tag())
	}
	return strings.Join(fields, ", ")
}
