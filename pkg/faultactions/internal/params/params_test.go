package params

import "testing"

func TestIntOr(t *testing.T) {
	if got := IntOr("", 7); got != 7 {
		t.Errorf("IntOr empty = %d, want 7", got)
	}
	if got := IntOr("42", 7); got != 42 {
		t.Errorf("IntOr(42) = %d, want 42", got)
	}
	if got := IntOr("nope", 7); got != 7 {
		t.Errorf("IntOr(invalid) = %d, want 7", got)
	}
}

func TestBoolOr(t *testing.T) {
	cases := map[string]bool{"true": true, "1": true, "yes": true, "false": false, "0": false, "no": false}
	for in, want := range cases {
		if got := BoolOr(in, !want); got != want {
			t.Errorf("BoolOr(%q) = %v, want %v", in, got, want)
		}
	}
	if got := BoolOr("", true); got != true {
		t.Error("BoolOr empty should fall back to default")
	}
}

func TestUDDHelpers(t *testing.T) {
	udd := map[string]interface{}{
		"latency_ms": float64(150),
		"device":     "eth0",
		"stateful":   true,
	}
	if got := UDDInt(udd, "latency_ms", 0); got != 150 {
		t.Errorf("UDDInt = %d, want 150", got)
	}
	if got := UDDString(udd, "device", ""); got != "eth0" {
		t.Errorf("UDDString = %q, want eth0", got)
	}
	if got := UDDBool(udd, "stateful", false); got != true {
		t.Error("UDDBool = false, want true")
	}
	if got := UDDInt(udd, "missing", 9); got != 9 {
		t.Errorf("UDDInt missing = %d, want default 9", got)
	}
}
