package eventid

import "testing"

func TestMakeRoundTrip(t *testing.T) {
	for _, d := range []uint16{0x0000, 0x0001, 0x0100, 0x0FFF, 0x1000, 0xFFFF, 0xBEEF} {
		for _, e := range []uint16{0x0000, 0x0001, 0xABCD, 0xFFFF} {
			id := Make(d, e)
			if got := id.Domain(); got != d {
				t.Errorf("Make(%#04x, %#04x).Domain() = %#04x, want %#04x", d, e, got, d)
			}
			if got := id.Event(); got != e {
				t.Errorf("Make(%#04x, %#04x).Event() = %#04x, want %#04x", d, e, got, e)
			}
		}
	}
}

func TestWildcard(t *testing.T) {
	if !Make(DomainWildcard, 42).IsWildcard() {
		t.Error("wildcard domain not detected")
	}
	if Make(DomainFramework, 42).IsWildcard() {
		t.Error("framework domain misreported as wildcard")
	}
}

func TestRanges(t *testing.T) {
	if !Make(ApplicationRangeLo, 0).InApplicationRange() {
		t.Error("ApplicationRangeLo not in application range")
	}
	if !Make(ApplicationRangeHi, 0).InApplicationRange() {
		t.Error("ApplicationRangeHi not in application range")
	}
	if Make(DriverRangeLo, 0).InApplicationRange() {
		t.Error("DriverRangeLo misreported as application range")
	}
	if !Make(DriverRangeLo, 0).InDriverRange() {
		t.Error("DriverRangeLo not in driver range")
	}
	if !Make(DriverRangeHi, 0).InDriverRange() {
		t.Error("DriverRangeHi not in driver range")
	}
}
