package modelconfig

import (
	"context"
	"maps"
)

// StaticSource serves assignments from config.yaml.
type StaticSource struct {
	assignments map[string]string
}

// NewStaticSource uses DefaultAssignments when the configured map is empty.
func NewStaticSource(assignments map[string]string) *StaticSource {
	if len(assignments) == 0 {
		assignments = DefaultAssignments()
	}
	return &StaticSource{assignments: maps.Clone(assignments)}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Load(context.Context) (map[string]string, error) {
	return maps.Clone(s.assignments), nil
}
