// Package mocks provides test doubles for the geocode package.
package mocks

import (
	"context"

	geocode "github.com/hirudo/hirudo-etl/pkg/geocode"
	mock "github.com/stretchr/testify/mock"
)

// MockGeocoder is a mock type for the Geocoder interface.
type MockGeocoder struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, address, c
func (_m *MockGeocoder) Geocode(ctx context.Context, address string, c geocode.Components) (*geocode.Result, error) {
	ret := _m.Called(ctx, address, c)

	if len(ret) == 0 {
		panic("no return value specified for Geocode")
	}

	var r0 *geocode.Result
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, geocode.Components) (*geocode.Result, error)); ok {
		return rf(ctx, address, c)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, geocode.Components) *geocode.Result); ok {
		r0 = rf(ctx, address, c)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geocode.Result)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, geocode.Components) error); ok {
		r1 = rf(ctx, address, c)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockGeocoder creates a new instance of MockGeocoder. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockGeocoder(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGeocoder {
	m := &MockGeocoder{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
