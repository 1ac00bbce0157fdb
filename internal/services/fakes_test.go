package services

import (
	"context"
	"errors"
	"sync"

	"github.com/bobby-s-dev/agri-copilot/internal/models"
)

// fakeProvider returns a fixed result and counts calls.
type fakeProvider[P any, T any] struct {
	name   string
	result models.Result[T]

	mu    sync.Mutex
	calls []P
}

func (f *fakeProvider[P, T]) Name() string { return f.name }

func (f *fakeProvider[P, T]) Fetch(_ context.Context, p P) models.Result[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	return f.result
}

func (f *fakeProvider[P, T]) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSearcher struct {
	results  map[string]models.Result[string]
	noKey    bool
	mu       sync.Mutex
	searched []string
}

func (f *fakeSearcher) HasCredential() bool { return !f.noKey }

func (f *fakeSearcher) SearchVarieties(_ context.Context, name, _ string) models.Result[string] {
	f.mu.Lock()
	f.searched = append(f.searched, name)
	f.mu.Unlock()
	if r, ok := f.results[name]; ok {
		return r
	}
	return models.Empty[string]()
}

type fakeTranslator struct {
	out string
	err error
}

func (f fakeTranslator) ToKorean(context.Context, string) (string, error) {
	return f.out, f.err
}

type fakeBackend struct {
	answer   string
	err      error
	received models.MessageSet
}

func (f *fakeBackend) Complete(_ context.Context, m models.MessageSet) (string, error) {
	f.received = m
	return f.answer, f.err
}

type fakeCategories struct {
	mu         sync.Mutex
	main       models.Result[[]models.CategoryNode]
	middle     models.Result[[]models.CategoryNode]
	mainCalls  int
	middleCall int
}

func (f *fakeCategories) MainCategories(ctx context.Context) models.Result[[]models.CategoryNode] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mainCalls++
	if err := ctx.Err(); err != nil {
		return models.Fail[[]models.CategoryNode](models.TransportFailure(err))
	}
	return f.main
}

func (f *fakeCategories) MiddleCategories(ctx context.Context, _ string) models.Result[[]models.CategoryNode] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.middleCall++
	if err := ctx.Err(); err != nil {
		return models.Fail[[]models.CategoryNode](models.TransportFailure(err))
	}
	return f.middle
}

type fakeLocator struct {
	result models.Result[models.Location]
	calls  int
}

func (f *fakeLocator) Locate(ctx context.Context) models.Result[models.Location] {
	f.calls++
	if err := ctx.Err(); err != nil {
		return models.Fail[models.Location](models.TransportFailure(err))
	}
	return f.result
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
