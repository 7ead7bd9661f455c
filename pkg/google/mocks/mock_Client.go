// Package mocks provides test doubles for the google client.
package mocks

import (
	"context"

	google "github.com/sells-group/trip-export/pkg/google"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SheetValues provides a mock function with given fields: ctx, spreadsheetID, sheet
func (_m *MockClient) SheetValues(ctx context.Context, spreadsheetID string, sheet string) ([][]string, error) {
	ret := _m.Called(ctx, spreadsheetID, sheet)

	if len(ret) == 0 {
		panic("no return value specified for SheetValues")
	}

	var r0 [][]string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([][]string)
	}
	return r0, ret.Error(1)
}

// SheetTitles provides a mock function with given fields: ctx, spreadsheetID
func (_m *MockClient) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	ret := _m.Called(ctx, spreadsheetID)

	if len(ret) == 0 {
		panic("no return value specified for SheetTitles")
	}

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}

// GetDocument provides a mock function with given fields: ctx, documentID
func (_m *MockClient) GetDocument(ctx context.Context, documentID string) (*google.Document, error) {
	ret := _m.Called(ctx, documentID)

	if len(ret) == 0 {
		panic("no return value specified for GetDocument")
	}

	var r0 *google.Document
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*google.Document)
	}
	return r0, ret.Error(1)
}

// CreateDocument provides a mock function with given fields: ctx, title
func (_m *MockClient) CreateDocument(ctx context.Context, title string) (*google.Document, error) {
	ret := _m.Called(ctx, title)

	if len(ret) == 0 {
		panic("no return value specified for CreateDocument")
	}

	var r0 *google.Document
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*google.Document)
	}
	return r0, ret.Error(1)
}

// BatchUpdateDocument provides a mock function with given fields: ctx, documentID, reqs
func (_m *MockClient) BatchUpdateDocument(ctx context.Context, documentID string, reqs []google.DocRequest) error {
	ret := _m.Called(ctx, documentID, reqs)

	if len(ret) == 0 {
		panic("no return value specified for BatchUpdateDocument")
	}

	return ret.Error(0)
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ google.Client = (*MockClient)(nil)
