package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUsageError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *UsageError
		contains []string
	}{
		{
			name: "with cause",
			err: &UsageError{
				Category: CategoryStore,
				Code:     "store_save_failed",
				Message:  "failed to write calibration store",
				Cause:    fmt.Errorf("read-only file system"),
			},
			contains: []string{"[store]", "store_save_failed", "failed to write calibration store", "read-only file system"},
		},
		{
			name: "without cause",
			err: &UsageError{
				Category: CategoryInput,
				Code:     CodeInvalidPercentage,
				Message:  "invalid session value: 120%",
			},
			contains: []string{"[input]", CodeInvalidPercentage, "invalid session value: 120%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("Error() = %q, want it to contain %q", msg, s)
				}
			}
		})
	}
}

func TestUsageError_UnwrapChain(t *testing.T) {
	root := fmt.Errorf("disk full")
	mid := StoreSaveFailed("/tmp/calibration_data.json", root)
	outer := fmt.Errorf("record sample: %w", mid)

	if !errors.Is(outer, root) {
		t.Error("expected errors.Is to find root cause through chain")
	}

	var ue *UsageError
	if !errors.As(outer, &ue) {
		t.Fatal("expected errors.As to find UsageError in chain")
	}
	if ue.Code != "store_save_failed" {
		t.Errorf("got code %q, want %q", ue.Code, "store_save_failed")
	}
}

func TestUsageError_Is(t *testing.T) {
	err1 := &UsageError{Category: CategoryUsage, Code: CodeSnapshotInactive, Message: "a"}
	err2 := &UsageError{Category: CategoryUsage, Code: CodeSnapshotInactive, Message: "b"}
	err3 := &UsageError{Category: CategoryUsage, Code: CodeSnapshotMalformed, Message: "c"}
	err4 := &UsageError{Category: CategoryStore, Code: CodeSnapshotInactive, Message: "d"}

	if !errors.Is(err1, err2) {
		t.Error("expected Is() to match same category+code regardless of message")
	}
	if errors.Is(err1, err3) {
		t.Error("expected Is() to not match different codes")
	}
	if errors.Is(err1, err4) {
		t.Error("expected Is() to not match different categories")
	}
	if errors.Is(err1, fmt.Errorf("not a usage error")) {
		t.Error("expected Is() to return false for non-UsageError target")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable", SnapshotUnavailable("/tmp/x.json", nil), true},
		{"non-retryable", InvalidPercentage("session", 150), false},
		{"wrapped retryable", fmt.Errorf("outer: %w", StoreLoadFailed("x", nil)), true},
		{"plain", fmt.Errorf("plain error"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"usage", SnapshotInactive("idle"), CategoryUsage},
		{"calibration", InvalidWindowKey("nope"), CategoryCalibration},
		{"wrapped config", fmt.Errorf("wrap: %w", ConfigLoadFailed("usagecal.yaml", nil)), CategoryConfig},
		{"plain", fmt.Errorf("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCategory(tt.err); got != tt.want {
				t.Errorf("GetCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetUserMessage(t *testing.T) {
	if got := GetUserMessage(InvalidWindowKey("09:00-14:00")); got != `window "09:00-14:00" does not exist` {
		t.Errorf("GetUserMessage() = %q", got)
	}
	if got := GetUserMessage(fmt.Errorf("something broke")); got != "something broke" {
		t.Errorf("GetUserMessage() = %q", got)
	}
	if got := GetUserMessage(nil); got != "" {
		t.Errorf("GetUserMessage(nil) = %q, want empty", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("read: %w", SnapshotMalformed("session.usage"))
	if !HasCode(err, CodeSnapshotMalformed) {
		t.Error("expected HasCode to find wrapped code")
	}
	if HasCode(err, CodeSnapshotInactive) {
		t.Error("expected HasCode to reject a different code")
	}
	if HasCode(nil, CodeSnapshotMalformed) {
		t.Error("expected HasCode(nil) to be false")
	}
}

func TestConstructors(t *testing.T) {
	t.Run("StoreLoadFailed", func(t *testing.T) {
		cause := fmt.Errorf("permission denied")
		err := StoreLoadFailed("/data/store.json", cause)
		assertError(t, err, CategoryStore, "store_load_failed", true, cause)
	})

	t.Run("SnapshotUnavailable", func(t *testing.T) {
		cause := fmt.Errorf("no such file")
		err := SnapshotUnavailable("/home/u/.claude_usage.json", cause)
		assertError(t, err, CategoryUsage, CodeSnapshotUnavailable, true, cause)
		if !strings.Contains(err.Message, ".claude_usage.json") {
			t.Errorf("Message should contain path, got %q", err.Message)
		}
	})

	t.Run("InvalidPercentage", func(t *testing.T) {
		err := InvalidPercentage("weekly", -3)
		assertError(t, err, CategoryInput, CodeInvalidPercentage, false, nil)
		if !strings.Contains(err.Message, "weekly") {
			t.Errorf("Message should contain the field name, got %q", err.Message)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := InvalidInput("keep", "must be positive")
		assertError(t, err, CategoryInput, CodeInvalidInput, false, nil)
		if err.Message != "invalid keep: must be positive" {
			t.Errorf("Message = %q", err.Message)
		}
	})

	t.Run("ConfigInvalid", func(t *testing.T) {
		err := ConfigInvalid("session_base_hour", "must be 0-23")
		assertError(t, err, CategoryConfig, "config_invalid", false, nil)
	})

	t.Run("MetricsExportFailed", func(t *testing.T) {
		cause := fmt.Errorf("no space left")
		err := MetricsExportFailed("/var/lib/node_exporter/usagecal.prom", cause)
		assertError(t, err, CategoryMetrics, "metrics_export_failed", true, cause)
	})
}

func assertError(t *testing.T, err *UsageError, category Category, code string, retryable bool, cause error) {
	t.Helper()
	if err.Category != category {
		t.Errorf("Category = %q, want %q", err.Category, category)
	}
	if err.Code != code {
		t.Errorf("Code = %q, want %q", err.Code, code)
	}
	if err.Retryable != retryable {
		t.Errorf("Retryable = %v, want %v", err.Retryable, retryable)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Message == "" {
		t.Error("Message should not be empty")
	}
}
