package admin

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) setupOp() huma.Operation {
	return huma.Operation{
		OperationID:   "admin-setup",
		Method:        http.MethodPost,
		Path:          "/admin/setup",
		Summary:       "Create the admin account (once)",
		Tags:          []string{"admin"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) exportOp() huma.Operation {
	return huma.Operation{
		OperationID: "admin-export",
		Method:      http.MethodGet,
		Path:        "/admin/export",
		Summary:     "Export every user and encrypted record",
		Tags:        []string{"admin"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.adminOnly,
	}
}

// The document is checked by the transfer service; encrypted fields may be null.
func (h *Handler) importOp() huma.Operation {
	return huma.Operation{
		OperationID:      "admin-import",
		Method:           http.MethodPost,
		Path:             "/admin/import",
		Summary:          "Import an export document",
		Tags:             []string{"admin"},
		Security:         []map[string][]string{{"bearer": {}}},
		SkipValidateBody: true,
		MaxBodyBytes:     64 << 20,
		Middlewares:      h.adminOnly,
	}
}
