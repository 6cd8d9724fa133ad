package storage

import (
	"strings"
	"testing"
)

func TestObjectKeySanitizesFileName(t *testing.T) {
	key := ObjectKey("My Cat Photo!.PNG", "uploads/u1")
	if !strings.HasPrefix(key, "uploads/u1/") {
		t.Fatalf("key %q not under folder", key)
	}
	name := key[strings.LastIndex(key, "-")+1:]
	if name != "my_cat_photo_.png" {
		t.Fatalf("sanitized name = %q", name)
	}
	if strings.ContainsAny(key, " !") {
		t.Fatalf("key %q contains unsafe characters", key)
	}
}

func TestObjectKeyEmptyInputs(t *testing.T) {
	key := ObjectKey("", "")
	if strings.HasPrefix(key, "/") {
		t.Fatalf("key %q has a leading slash", key)
	}
	if !strings.HasSuffix(key, "-file") {
		t.Fatalf("empty filename fallback missing: %q", key)
	}
}

func TestObjectKeyUnique(t *testing.T) {
	a := ObjectKey("cat.png", "uploads/u1")
	b := ObjectKey("cat.png", "uploads/u1")
	if a == b {
		t.Fatalf("two keys for the same filename collided: %q", a)
	}
}

func TestObjectKeyTrimsFolderSlashes(t *testing.T) {
	key := ObjectKey("cat.png", "/uploads/u1/")
	if !strings.HasPrefix(key, "uploads/u1/") {
		t.Fatalf("folder slashes not trimmed: %q", key)
	}
	if strings.Contains(key, "//") {
		t.Fatalf("key %q contains double slashes", key)
	}
}

func TestAllowedContentType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "image/webp"} {
		if !AllowedContentType(ct) {
			t.Errorf("%s should be allowed", ct)
		}
	}
	for _, ct := range []string{"image/gif", "application/pdf", "text/html", ""} {
		if AllowedContentType(ct) {
			t.Errorf("%s should be rejected", ct)
		}
	}
}
