package media

import (
	"testing"
)

func TestTagListValueScan(t *testing.T) {
	tags := TagList{"nature", "trek"}

	value, err := tags.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded TagList
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != "nature" || decoded[1] != "trek" {
		t.Errorf("roundtrip produced %v", decoded)
	}
}

func TestTagListEmptyValue(t *testing.T) {
	var tags TagList

	value, err := tags.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if value != nil {
		t.Errorf("empty tag list should store NULL, got %v", value)
	}

	var decoded TagList
	if err := decoded.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if decoded != nil {
		t.Errorf("scanning NULL produced %v", decoded)
	}
}

func TestTagListContains(t *testing.T) {
	tags := TagList{"a", "b"}
	if !tags.Contains("a") || tags.Contains("c") {
		t.Error("Contains misbehaved")
	}
}
