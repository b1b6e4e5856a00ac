package logger

import "testing"

func TestRedactKVsMasksCredentialKeys(t *testing.T) {
	out := redactKVs([]interface{}{
		"api_key", "super-secret",
		"hawksoft_api_key", "also-secret",
		"authorization", "Bearer xyz",
		"db_password", "hunter2",
		"refresh_token", "abc",
		"tenant_id", "t-1",
	})

	got := map[string]interface{}{}
	for i := 0; i+1 < len(out); i += 2 {
		got[out[i].(string)] = out[i+1]
	}

	for _, key := range []string{"api_key", "hawksoft_api_key", "authorization", "db_password", "refresh_token"} {
		if got[key] != "[REDACTED]" {
			t.Fatalf("%q should be redacted, got %v", key, got[key])
		}
	}
	if got["tenant_id"] != "t-1" {
		t.Fatalf("non-secret keys must pass through, got %v", got["tenant_id"])
	}
}

func TestRedactKVsOddTrailingKey(t *testing.T) {
	out := redactKVs([]interface{}{"only_key"})
	if len(out) != 1 || out[0] != "only_key" {
		t.Fatalf("dangling key should pass through: %v", out)
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", ""} {
		log, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		log.Info("hello", "api_key", "must-not-appear")
		log.Sync()
	}
}
