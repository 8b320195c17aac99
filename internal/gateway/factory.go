package gateway

import (
	"fmt"

	"till-go/internal/config"
	"till-go/internal/till"
)

// NewGatewayFromConfig creates a Gateway implementation based on the
// external storage config type.
func NewGatewayFromConfig(cfg config.ExternalConfig, store till.Store, logger till.Logger) (till.Gateway, error) {
	switch cfg.Type {
	case "", "dir":
		var prompt PromptFunc
		if cfg.Dir != "" {
			prompt = FixedPrompt(cfg.Dir)
		} else {
			prompt = TerminalPrompt()
		}
		return NewDirGateway(store, prompt, logger), nil
	case "none":
		return Unsupported{}, nil
	default:
		return nil, fmt.Errorf("unknown external storage type: %s", cfg.Type)
	}
}
