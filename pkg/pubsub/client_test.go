package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/marketplace-engine/pkg/config"
)

func TestResourceNames(t *testing.T) {
	cases := []struct {
		name    string
		project string
		input   string
		topic   string
		sub     string
	}{
		{name: "short id", project: "proj", input: "commerce-events", topic: "projects/proj/topics/commerce-events", sub: "projects/proj/subscriptions/commerce-events"},
		{name: "trimmed", project: " proj ", input: "  ev  ", topic: "projects/proj/topics/ev", sub: "projects/proj/subscriptions/ev"},
		{name: "empty name", project: "proj", input: " ", topic: "", sub: ""},
		{name: "missing project", project: "", input: "ev", topic: "", sub: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := topicResourceName(tc.project, tc.input); got != tc.topic {
				t.Fatalf("topic: expected %q got %q", tc.topic, got)
			}
			if got := subscriptionResourceName(tc.project, tc.input); got != tc.sub {
				t.Fatalf("subscription: expected %q got %q", tc.sub, got)
			}
		})
	}
}

func TestResourceNamesPassThroughFullNames(t *testing.T) {
	full := "projects/other/topics/commerce"
	if got := topicResourceName("proj", full); got != full {
		t.Fatalf("expected full topic name kept, got %q", got)
	}
	fullSub := "projects/other/subscriptions/notify"
	if got := subscriptionResourceName("proj", fullSub); got != fullSub {
		t.Fatalf("expected full subscription name kept, got %q", got)
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.GCPConfig{}, config.PubSubConfig{CommerceTopic: "t"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.PubSubConfig{}, nil); err != errTopicRequired {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("topic") != nil {
		t.Fatalf("expected nil publisher")
	}
	if c.Subscription("sub") != nil {
		t.Fatalf("expected nil subscriber")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on nil client")
	}
}
