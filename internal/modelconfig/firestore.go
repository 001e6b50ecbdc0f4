package modelconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"stock-analysis-agent/internal/logger"
)

const modelField = "llm_model"

// FirestoreSource reads one document per agent from a collection. The document id
// is the agent name and the llm_model field holds the model id.
type FirestoreSource struct {
	projectIDEnv   string
	credentialsEnv string
	collection     string
	timeout        time.Duration
}

func NewFirestoreSource(projectIDEnv, credentialsEnv, collection string, timeout time.Duration) *FirestoreSource {
	return &FirestoreSource{
		projectIDEnv:   projectIDEnv,
		credentialsEnv: credentialsEnv,
		collection:     collection,
		timeout:        timeout,
	}
}

func (s *FirestoreSource) Name() string { return "firestore" }

func (s *FirestoreSource) Load(ctx context.Context) (map[string]string, error) {
	credPath := os.Getenv(s.credentialsEnv)
	if credPath == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrSourceUnavailable, s.credentialsEnv)
	}
	if _, err := os.Stat(credPath); err != nil {
		return nil, fmt.Errorf("%w: credentials file %s: %v", ErrSourceUnavailable, credPath, err)
	}

	projectID := os.Getenv(s.projectIDEnv)
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := firestore.NewClient(ctx, projectID, option.WithCredentialsFile(credPath))
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	defer client.Close()

	out := map[string]string{}
	docs := client.Collection(s.collection).Documents(ctx)
	defer docs.Stop()
	for {
		doc, err := docs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.collection, err)
		}

		model, ok := doc.Data()[modelField].(string)
		if !ok || model == "" {
			logger.Warn(ctx, "Agent document missing model field", "agent", doc.Ref.ID, "field", modelField)
			continue
		}
		out[doc.Ref.ID] = model
	}
	return out, nil
}
