package task

import "testing"

func TestResultConstructors(t *testing.T) {
	if k := Done().Kind(); k != KindCompleted {
		t.Fatalf("Done kind %v", k)
	}
	if k := Again().Kind(); k != KindRetry {
		t.Fatalf("Again kind %v", k)
	}
	r := FailQuiet(0x042)
	if r.Kind() != KindFailQuiet || r.Reason() != 0x042 {
		t.Fatalf("FailQuiet %v reason %03x", r.Kind(), r.Reason())
	}
	r = FailWithOutput(0xABC)
	if r.Kind() != KindFailOutput || r.Reason() != 0xABC {
		t.Fatalf("FailWithOutput %v reason %03x", r.Kind(), r.Reason())
	}
	// reason is truncated to 12 bits, never spilling into the next range
	r = FailQuiet(0xFFFF)
	if r.Kind() != KindFailQuiet || r.Reason() != 0x0FFF {
		t.Fatalf("masked FailQuiet %v reason %03x", r.Kind(), r.Reason())
	}
}

func TestResultZeroValueInvalid(t *testing.T) {
	var r Result
	if r.Kind() != KindInvalid {
		t.Fatalf("zero Result should be invalid, got %v", r.Kind())
	}
}

func TestResultCodeBoundaries(t *testing.T) {
	cases := []struct {
		code uint16
		kind Kind
	}{
		{0x0000, KindInvalid},
		{0x0FFF, KindInvalid},
		{0x1000, KindInvalid},
		{0x1001, KindCompleted},
		{0x10FF, KindRetry},
		{0x1FFF, KindInvalid},
		{0x2000, KindFailQuiet},
		{0x3FFF, KindFailQuiet},
		{0x4000, KindFailOutput},
		{0x5FFF, KindFailOutput},
		{0x6000, KindInvalid},
		{0xFFFF, KindInvalid},
	}
	for _, c := range cases {
		r := Result{code: c.code}
		if r.Kind() != c.kind {
			t.Fatalf("code %04x classified %v, want %v", c.code, r.Kind(), c.kind)
		}
	}
}

func TestResultFromCode(t *testing.T) {
	r, err := ResultFromCode(0x2007)
	if err != nil {
		t.Fatalf("valid code rejected: %v", err)
	}
	if r.Kind() != KindFailQuiet || r.Reason() != 0x007 {
		t.Fatalf("decoded %v reason %03x", r.Kind(), r.Reason())
	}
	if _, err := ResultFromCode(0x0042); err == nil {
		t.Fatalf("expected error for invalid code")
	}
}

func TestResultHasOutput(t *testing.T) {
	if !Done().HasOutput() {
		t.Fatalf("completed should carry output")
	}
	if !FailWithOutput(1).HasOutput() {
		t.Fatalf("fail-with-output should carry output")
	}
	if FailQuiet(1).HasOutput() || Again().HasOutput() {
		t.Fatalf("quiet failure and retry must not carry output")
	}
}
