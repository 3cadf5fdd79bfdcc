package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
	"transcribe-api/repository"
)

func setupTestRepo(t *testing.T) repository.RecordingRepository {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:service_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := repository.Connect(ctx, dsn, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(ctx, db))
	t.Cleanup(func() { _ = repository.Close(db) })

	return repository.NewRepo(db)
}

type fakeProvider struct {
	transcript    string
	summary       string
	transcribeErr error
	completeErr   error

	mu          sync.Mutex
	transcribed []string
	prompts     []string
}

func (p *fakeProvider) Transcribe(_ context.Context, audio []byte, filename, mediaType string) (string, error) {
	p.mu.Lock()
	p.transcribed = append(p.transcribed, filename+"|"+mediaType+"|"+string(audio))
	p.mu.Unlock()
	if p.transcribeErr != nil {
		return "", p.transcribeErr
	}
	return p.transcript, nil
}

func (p *fakeProvider) Complete(_ context.Context, prompt, _ string) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()
	if p.completeErr != nil {
		return "", p.completeErr
	}
	return p.summary, nil
}

type fakeArchive struct {
	putErr    error
	removeErr error

	mu      sync.Mutex
	docs    map[string]string
	removed []string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{docs: map[string]string{}}
}

func (a *fakeArchive) PutSummary(_ context.Context, id string, doc []byte) error {
	if a.putErr != nil {
		return a.putErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.docs[id] = string(doc)
	return nil
}

func (a *fakeArchive) RemoveSummary(_ context.Context, id string) error {
	if a.removeErr != nil {
		return a.removeErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.docs, id)
	a.removed = append(a.removed, id)
	return nil
}

type fakePublisher struct {
	err      error
	messages []any
}

func (p *fakePublisher) Publish(_ context.Context, message any) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message)
	return nil
}
