package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) PublishWithHeaders(ctx context.Context, routingKey string, event any, headers map[string]string) error {
	args := m.Called(ctx, routingKey, event, headers)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// EventsFor returns the events recorded for routingKey, in call order.
func (m *PublisherMock) EventsFor(routingKey string) []any {
	var events []any
	for _, call := range m.Calls {
		if call.Method != "Publish" && call.Method != "PublishWithHeaders" {
			continue
		}
		if key, _ := call.Arguments.Get(1).(string); key == routingKey {
			events = append(events, call.Arguments.Get(2))
		}
	}
	return events
}
