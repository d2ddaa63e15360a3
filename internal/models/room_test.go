package models

import "testing"

func TestWaitRemaining_Expired(t *testing.T) {
	cases := []struct {
		name string
		w    WaitRemaining
		want bool
	}{
		{"indefinite never expires", Indefinite(), false},
		{"positive slice not expired", Slice(5), false},
		{"zero slice expired", Slice(0), true},
		{"negative slice expired", Slice(-1), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.w.Expired(); got != tc.want {
				t.Fatalf("Expired() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWaitRemaining_Tick(t *testing.T) {
	w := Slice(5)
	w = w.Tick(2)
	if w.Seconds() != 3 {
		t.Fatalf("expected 3 remaining, got %v", w.Seconds())
	}
	w = w.Tick(10)
	if w.Seconds() != 0 || !w.Expired() {
		t.Fatalf("expected clamped to 0 and expired, got %v", w.Seconds())
	}

	ind := Indefinite()
	if ind.Tick(100) != ind {
		t.Fatalf("indefinite should be unaffected by Tick")
	}
}

func TestWaitRemaining_Less(t *testing.T) {
	cases := []struct {
		name string
		a, b WaitRemaining
		want bool
	}{
		{"finite beats indefinite", Slice(100), Indefinite(), true},
		{"indefinite loses to finite", Indefinite(), Slice(100), false},
		{"smaller finite wins", Slice(5), Slice(10), true},
		{"larger finite loses", Slice(10), Slice(5), false},
		{"two indefinites tie as false", Indefinite(), Indefinite(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Less(tc.b); got != tc.want {
				t.Fatalf("Less() = %v, want %v", got, tc.want)
			}
		})
	}
}
