package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"google.golang.org/adk/session"
	sessiondb "google.golang.org/adk/session/database"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/store"
)

// NewSessionService returns a SQLite backed session service when
// sessions.db_path is set, otherwise an in-memory one.
func NewSessionService(ctx context.Context, cfg *store.Config) (session.Service, error) {
	path := cfg.Sessions.DBPath
	if path == "" {
		logger.Debug(ctx, "Session persistence disabled; using in-memory sessions")
		return session.InMemoryService(), nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session db dir: %w", err)
		}
	}

	svc, err := sessiondb.NewSessionService(
		sqlite.Open(path),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)},
	)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := sessiondb.AutoMigrate(svc); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}

	logger.Info(ctx, "Session persistence enabled", "path", path)
	return svc, nil
}
