package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("listing_type", "auction"),
		attribute.String("seller_email", "seller@example.com"),
		attribute.String("outcome", "sold"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "seller_email" {
			t.Fatalf("expected seller_email to be dropped")
		}
	}
}
