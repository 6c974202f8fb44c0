package http

import (
	"fmt"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// pathUUID binds a required path parameter the way generated servers do.
func pathUUID(ctx echo.Context, name string) (kernel.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, fmt.Errorf("Invalid format for parameter %s: %w", name, err)
	}
	return kernel.UUIDFromBytes(id[:])
}

// queryUUID binds an optional query parameter; it returns nil when absent.
func queryUUID(ctx echo.Context, name string) (*kernel.UUID, error) {
	var id *uuid.UUID
	if err := runtime.BindQueryParameter("form", true, false, name, ctx.QueryParams(), &id); err != nil {
		return nil, fmt.Errorf("Invalid format for parameter %s: %w", name, err)
	}
	if id == nil {
		return nil, nil
	}
	out, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return nil, err
	}
	return &out, nil
}
