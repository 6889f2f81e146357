package config

import (
	"errors"
	"testing"
)

func TestKeysDeclarationOrder(t *testing.T) {
	keys := Keys()
	if len(keys) != 31 {
		t.Fatalf("expected 31 keys, got %d", len(keys))
	}
	if keys[0] != TestOS || keys[len(keys)-1] != ConfigTool {
		t.Fatalf("unexpected ordering: first=%s last=%s", keys[0], keys[len(keys)-1])
	}

	seen := make(map[Key]bool, len(keys))
	for _, key := range keys {
		if source, ok := key.Source(); ok && !seen[source] {
			t.Fatalf("%s is listed before its source %s", key, source)
		}
		seen[key] = true
	}
}

func TestParseKey(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := ParseKey(" pswdfile ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != PasswordFile {
			t.Fatalf("expected %s, got %s", PasswordFile, got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := ParseKey("NOPE"); !errors.Is(err, ErrUnknownKey) {
			t.Fatalf("expected ErrUnknownKey, got %v", err)
		}
	})
}

func TestKeyMetadata(t *testing.T) {
	if !PasswordFile.Derived() || TempDir.Derived() {
		t.Fatalf("unexpected derived flags")
	}
	if source, ok := TestsJavaDir.Source(); !ok || source != TestsSharedDir {
		t.Fatalf("expected TESTS_JAVA_DIR to derive from TESTS_SHARED_DIR, got %s", source)
	}
	if _, ok := TempDir.Source(); ok {
		t.Fatalf("literal key should have no source")
	}
	if got := InstanceBackend.Default(); got != "userRoot" {
		t.Fatalf("unexpected default %q", got)
	}
	if got := JavaHome.EnvVar(); got != "FUNCTEST_JAVA_HOME" {
		t.Fatalf("unexpected env var %q", got)
	}
	if Key("BOGUS").Known() {
		t.Fatalf("unexpected known key")
	}
}
