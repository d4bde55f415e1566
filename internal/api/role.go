package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"reflect"

	"onduty-admin/internal/logger"
	"onduty-admin/internal/model"
	"onduty-admin/internal/normalize"
	"onduty-admin/internal/schema"
	"onduty-admin/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type RoleAssigner interface {
	AssignRole(ctx context.Context, ra model.RoleAssignment) error
}

type RoleHandler struct {
	validator *schema.Validator
	assigner  RoleAssigner
	log       zerolog.Logger
}

func NewRoleHandler(validator *schema.Validator, assigner RoleAssigner) *RoleHandler {
	return &RoleHandler{
		validator: validator,
		assigner:  assigner,
		log:       logger.Get(),
	}
}

func (h *RoleHandler) AssignRole(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	data, err := json.Marshal(normalize.RoleAssignment(payload))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ra, err := model.DecodeRoleAssignment(data)
	if err != nil {
		var reason model.Reason
		switch {
		case !stderrors.Is(err, errors.ErrUnknownRole):
			reason = decodeReason(err, payload)
		case payload["role"] == nil:
			reason = model.Reason{Field: "role", Message: "Role is required"}
		default:
			reason = model.Reason{Field: "role", Message: "Unknown role", Value: payload["role"]}
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Invalid role assignment",
			"reasons": []model.Reason{reason},
		})
		return
	}

	if reasons := h.validator.ValidateRoleAssignment(ra); len(reasons) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Invalid role assignment",
			"reasons": reasons,
		})
		return
	}

	if err := h.assigner.AssignRole(c.Request.Context(), ra); err != nil {
		h.log.Error().Err(err).Str("role", string(ra.Role())).Msg("Failed to assign role")
		var subErr errors.SubmissionError
		if stderrors.As(err, &subErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": subErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Role assigned",
		"role":      ra.Role(),
		"teacherId": ra.Teacher(),
	})
}

// decodeReason keys a type mismatch by the offending field, the same way a
// sheet cell that fails coercion is reported.
func decodeReason(err error, payload map[string]any) model.Reason {
	var typeErr *json.UnmarshalTypeError
	if !stderrors.As(err, &typeErr) || typeErr.Field == "" {
		return model.Reason{Field: "body", Message: "Malformed role assignment"}
	}

	msg := "invalid value"
	switch typeErr.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		msg = "expected number"
	case reflect.String:
		msg = "expected string"
	}
	return model.Reason{Field: typeErr.Field, Message: msg, Value: payload[typeErr.Field]}
}
