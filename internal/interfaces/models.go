package interfaces

import "context"

// ModelSource loads agent name to model id assignments from a backing store.
type ModelSource interface {
	Name() string
	Load(ctx context.Context) (map[string]string, error)
}

// ModelResolver answers which model an agent should run on.
type ModelResolver interface {
	GetModel(ctx context.Context, agentName string) string
	All(ctx context.Context) map[string]string
	Reload(ctx context.Context) error
	DefaultModel() string
}
