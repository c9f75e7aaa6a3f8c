package tenancy

import (
	"context"
	"testing"
)

func TestWithSalonIDAndSalonIDFromContext(t *testing.T) {
	ctx := WithSalonID(context.Background(), "salon-123")

	got, ok := SalonIDFromContext(ctx)
	if !ok {
		t.Fatalf("expected salon id to be present")
	}
	if got != "salon-123" {
		t.Fatalf("expected salon-123, got %s", got)
	}
}

func TestSalonIDFromContext_EmptyOrMissing(t *testing.T) {
	ctx := context.Background()
	if _, ok := SalonIDFromContext(ctx); ok {
		t.Fatalf("expected missing salon id to return false")
	}

	ctx = context.WithValue(ctx, salonKey, 42)
	if _, ok := SalonIDFromContext(ctx); ok {
		t.Fatalf("expected non-string salon id to return false")
	}

	ctx = WithSalonID(context.Background(), "")
	if _, ok := SalonIDFromContext(ctx); ok {
		t.Fatalf("expected empty salon id to return false")
	}
}

func TestLanguageFromContext(t *testing.T) {
	if got := LanguageFromContext(context.Background(), "en"); got != "en" {
		t.Fatalf("expected fallback, got %s", got)
	}
	ctx := WithLanguage(context.Background(), "ru")
	if got := LanguageFromContext(ctx, "en"); got != "ru" {
		t.Fatalf("expected ru, got %s", got)
	}
}
