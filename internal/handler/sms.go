package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type verifyCodeRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

// IssueCode handles POST /v1/users/:id/sms-code. The code itself only
// travels to the SMS sender, never back to the caller.
func (h *Handler) IssueCode(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	n, err := h.api.IssueConfirmationCode(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"notification_id": n.ID, "created_at": n.CreatedAt})
}

// VerifyCode handles POST /v1/users/:id/sms-code/verify.
func (h *Handler) VerifyCode(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req verifyCodeRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	if err := h.api.CheckConfirmationCode(c.Request().Context(), id, req.Code); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"confirmed": true})
}
