package httpinput

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/infrastructure/inputs"
)

// Factory creates HTTP ingest inputs. Registers as "http".
type Factory struct{}

func (f *Factory) Name() string {
	return "http"
}

func (f *Factory) ConfigSpec() inputs.InputTypeInfo {
	return inputs.InputTypeInfo{
		Type:        "http",
		Description: "HTTP ingest endpoint. Accepts a JSON object or array per POST and stores it in the input's target. Mounted on the main server unless a listen address is given.",
		Fields: []inputs.ConfigField{
			{Name: "description", Type: "string", Required: true, Description: "Path segment for the endpoint (e.g. 'system-logs' → /ingest/system-logs)", Example: "system-logs"},
			{Name: "base_path", Type: "string", Required: false, Description: "Base path prefix", Example: "/ingest"},
			{Name: "listen", Type: "string", Required: false, Description: "Optional host:port to bind instead of mounting on the main server.", Example: ":9001"},
			{Name: "max_body_bytes", Type: "number", Required: false, Description: "Largest accepted request body", Example: "1048576"},
		},
	}
}

func (f *Factory) Create(cfg inputs.Config, sink inputs.Sink, logger zerolog.Logger) (inputs.MessageInput, error) {
	description := cfg.String("description")
	if description == "" {
		return nil, fmt.Errorf("missing 'description' for http input")
	}
	basePath := cfg.String("base_path")
	if basePath == "" {
		basePath = "/ingest"
	}
	maxBody, err := cfg.Int("max_body_bytes", defaultMaxBody)
	if err != nil {
		return nil, err
	}
	in := NewInput(basePath, description, sink, cfg.String("listen"), logger)
	in.maxBody = int64(maxBody)
	return in, nil
}
