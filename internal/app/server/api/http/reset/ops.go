package reset

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) requestOp() huma.Operation {
	return huma.Operation{
		OperationID:   "user-reset-request",
		Method:        http.MethodPost,
		Path:          "/user/reset/request",
		Summary:       "Request a password reset link",
		Tags:          []string{"users"},
		DefaultStatus: http.StatusAccepted,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) redeemOp() huma.Operation {
	return huma.Operation{
		OperationID: "user-reset-redeem",
		Method:      http.MethodPost,
		Path:        "/user/reset/redeem",
		Summary:     "Set a new password with a reset token",
		Tags:        []string{"users"},
		Middlewares: h.middleware,
	}
}
