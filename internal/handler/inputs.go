package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
	"github.com/openrangelabs/middleware/internal/response"
)

// InputHandler serves /api/v1/inputs. Inputs are declared in configuration
// and started with the server, so the endpoints are read-only.
type InputHandler struct {
	Registry *inputs.Registry
}

func (h *InputHandler) Register(g *echo.Group) {
	g.GET("", h.ListInputs)
	g.GET("/types", h.ListTypes)
	g.GET("/types/:type", h.GetTypeInfo)
	g.GET("/info", h.GetAllTypesInfo)
}

// ListTypes returns registered input type names (GET /inputs/types).
func (h *InputHandler) ListTypes(c echo.Context) error {
	return response.OK(c, map[string]any{"types": h.Registry.ListRegistered()}, "")
}

// GetAllTypesInfo returns config spec for every registered input type (GET /inputs/info).
func (h *InputHandler) GetAllTypesInfo(c echo.Context) error {
	return response.OK(c, map[string]any{"types": h.Registry.AllTypesInfo()}, "")
}

// GetTypeInfo returns config spec for one input type (GET /inputs/types/:type).
func (h *InputHandler) GetTypeInfo(c echo.Context) error {
	typeName := c.Param("type")
	info, ok := h.Registry.GetTypeInfo(typeName)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown input type: "+typeName)
	}
	return response.OK(c, info, "")
}

// ListInputs returns the running inputs (GET /inputs).
func (h *InputHandler) ListInputs(c echo.Context) error {
	return response.OK(c, map[string]any{"inputs": h.Registry.Running()}, "")
}
