package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
)

//go:embed openapi.yaml
var openAPISpec []byte

var registerDocOnce sync.Once

// LoadOpenAPI parses and validates the embedded API description.
func LoadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err = doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

type swaggerDoc struct {
	raw string
}

func (d swaggerDoc) ReadDoc() string {
	return d.raw
}

// RegisterDocs serves the API description at /openapi.json and the Swagger
// UI at /swagger/index.html.
func RegisterDocs(e *echo.Echo, doc *openapi3.T) error {
	raw, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode openapi document: %w", err)
	}

	// swag keeps a process-wide registry and panics on a second Register.
	registerDocOnce.Do(func() {
		swag.Register(swag.Name, swaggerDoc{raw: string(raw)})
	})

	e.GET("/openapi.json", func(c echo.Context) error {
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, raw)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	return nil
}
