package modelconfig

import (
	"fmt"

	"stock-analysis-agent/internal/interfaces"
	"stock-analysis-agent/internal/store"
)

// NewSource picks the backing store named by models.source.
func NewSource(cfg *store.Config) (interfaces.ModelSource, error) {
	switch cfg.Models.Source {
	case "static":
		return NewStaticSource(cfg.Models.Static), nil
	case "firestore":
		return NewFirestoreSource(cfg.Firestore.ProjectIDEnv, cfg.Firestore.CredentialsEnv,
			cfg.Firestore.Collection, cfg.FirestoreTimeout()), nil
	case "redis":
		return NewRedisSource(cfg.Redis.URLEnv, cfg.Redis.Key), nil
	default:
		return nil, fmt.Errorf("unknown model source %q", cfg.Models.Source)
	}
}
