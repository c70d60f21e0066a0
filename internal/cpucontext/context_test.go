package cpucontext

import "testing"

func TestGPR_R0IsAlwaysZero(t *testing.T) {
	c := New()
	c.SetGPRU32(0, 0xDEADBEEF)
	if c.GPRU32(0) != 0 {
		t.Fatalf("r0 = %#x, want 0 after write attempt", c.GPRU32(0))
	}
}

func TestGPR_32BitWriteSignExtendsAndZeroesUpperLane(t *testing.T) {
	c := New()
	c.R[4] = Lane128{Lo: 0, Hi: 0xFFFFFFFFFFFFFFFF} // simulate stale upper lane
	c.SetGPRU32(4, 0xFFFFFFFF)                       // -1 as unsigned 32-bit

	if got, want := c.GPRU64(4), uint64(0xFFFFFFFFFFFFFFFF); got != want {
		t.Fatalf("GPRU64 = %#x, want %#x (sign-extended)", got, want)
	}
	if c.R[4].Hi != 0 {
		t.Fatalf("upper lane = %#x, want 0 (zeroed per resolved open question)", c.R[4].Hi)
	}
}

func TestGPR_SignExtensionOfPositiveValue(t *testing.T) {
	c := New()
	c.SetGPRU32(5, 0x7FFFFFFF)
	if got, want := c.GPRS64(5), int64(0x7FFFFFFF); got != want {
		t.Fatalf("GPRS64 = %d, want %d", got, want)
	}
}

func TestSetReturnU64SplitsAcrossV0V1(t *testing.T) {
	c := New()
	c.SetReturnU64(0x1122334455667788)
	if got := c.GPRU32(2); got != 0x55667788 {
		t.Fatalf("v0 = %#x, want 0x55667788", got)
	}
	if got := c.GPRU32(3); got != 0x11223344 {
		t.Fatalf("v1 = %#x, want 0x11223344", got)
	}
}

func TestFPCompare(t *testing.T) {
	if !FPCompare(2, 1.0, 1.0) { // EQ
		t.Fatalf("EQ(1.0,1.0) should be true")
	}
	if FPCompare(2, 1.0, 2.0) {
		t.Fatalf("EQ(1.0,2.0) should be false")
	}
	if !FPCompare(4, 1.0, 2.0) { // OLT
		t.Fatalf("OLT(1.0,2.0) should be true")
	}
}

func TestVU0RunMicroprogramStub(t *testing.T) {
	v := &VU0State{StatusFlag: 5, Q: 0}
	v.RunMicroprogram()
	if v.StatusFlag != 0 || v.Q != 1.0 {
		t.Fatalf("RunMicroprogram did not reset to documented stub state: %+v", v)
	}
}
