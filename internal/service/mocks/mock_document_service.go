package mocks

import (
	"context"
	"io"

	"arkiv/internal/model"
	"arkiv/internal/repository"
	"arkiv/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) FindByHash(ctx context.Context, hash string) (*model.Document, bool, error) {
	args := m.Called(ctx, hash)
	var doc *model.Document
	if args.Get(0) != nil {
		doc = args.Get(0).(*model.Document)
	}
	return doc, args.Bool(1), args.Error(2)
}

func (m *MockDocumentService) Insert(ctx context.Context, doc *model.Document, payload []byte) error {
	args := m.Called(ctx, doc, payload)
	return args.Error(0)
}

func (m *MockDocumentService) List(ctx context.Context, limit, offset int, actor model.Actor, includeExpired bool) (*service.DocumentListResult, error) {
	args := m.Called(ctx, limit, offset, actor, includeExpired)
	var res *service.DocumentListResult
	if args.Get(0) != nil {
		res = args.Get(0).(*service.DocumentListResult)
	}
	return res, args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, hash string, actor model.Actor) (*model.Document, error) {
	args := m.Called(ctx, hash, actor)
	var doc *model.Document
	if args.Get(0) != nil {
		doc = args.Get(0).(*model.Document)
	}
	return doc, args.Error(1)
}

func (m *MockDocumentService) Open(ctx context.Context, hash string, actor model.Actor) (io.ReadCloser, *model.Document, error) {
	args := m.Called(ctx, hash, actor)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var doc *model.Document
	if args.Get(1) != nil {
		doc = args.Get(1).(*model.Document)
	}
	return rc, doc, args.Error(2)
}

func (m *MockDocumentService) Update(ctx context.Context, hash string, patch repository.DocumentPatch, actor model.Actor) (*model.Document, error) {
	args := m.Called(ctx, hash, patch, actor)
	var doc *model.Document
	if args.Get(0) != nil {
		doc = args.Get(0).(*model.Document)
	}
	return doc, args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, hash string, actor model.Actor) error {
	args := m.Called(ctx, hash, actor)
	return args.Error(0)
}
