//go:build !integration

package video_test

import (
	"errors"
	"testing"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/infra/adapters/video"
)

func TestKeyring(t *testing.T) {
	t.Run("should reject an empty key set", func(t *testing.T) {
		if _, err := video.NewKeyring(nil); !errors.Is(err, domain.ErrNoCredentials) {
			t.Fatalf("expected ErrNoCredentials, got %v", err)
		}
		if _, err := video.NewKeyring([]string{"", ""}); !errors.Is(err, domain.ErrNoCredentials) {
			t.Fatalf("expected ErrNoCredentials for blank keys, got %v", err)
		}
	})

	t.Run("should drop blank keys and keep order", func(t *testing.T) {
		k, err := video.NewKeyring([]string{"", "key-a", "", "key-b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if k.Len() != 2 {
			t.Fatalf("expected 2 keys, got %d", k.Len())
		}
		if got := k.Active(); got != "key-a" {
			t.Errorf("expected first key active, got %q", got)
		}
	})

	t.Run("should rotate through keys and wrap around", func(t *testing.T) {
		k, _ := video.NewKeyring([]string{"key-a", "key-b", "key-c"})

		want := []string{"key-b", "key-c", "key-a", "key-b"}
		for i, w := range want {
			if !k.Rotate() {
				t.Fatalf("rotation %d reported false with multiple keys", i)
			}
			if got := k.Active(); got != w {
				t.Errorf("rotation %d: expected %q active, got %q", i, w, got)
			}
		}
	})

	t.Run("should refuse to rotate a single key", func(t *testing.T) {
		k, _ := video.NewKeyring([]string{"only-key"})
		if k.Rotate() {
			t.Fatal("Rotate returned true with a single key")
		}
		if got := k.Active(); got != "only-key" {
			t.Errorf("active key changed after failed rotation: %q", got)
		}
	})
}
