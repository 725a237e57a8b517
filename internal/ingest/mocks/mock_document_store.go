package mocks

import (
	"context"

	"arkiv/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) FindByHash(ctx context.Context, hash string) (*model.Document, bool, error) {
	args := m.Called(ctx, hash)
	var doc *model.Document
	if args.Get(0) != nil {
		doc = args.Get(0).(*model.Document)
	}
	return doc, args.Bool(1), args.Error(2)
}

func (m *MockDocumentStore) Insert(ctx context.Context, doc *model.Document, payload []byte) error {
	args := m.Called(ctx, doc, payload)
	return args.Error(0)
}
