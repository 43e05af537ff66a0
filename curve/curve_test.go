package curve

import (
	"math/big"
	"testing"
)

func TestNewDomainRejectsNonPowerOfTwo(t *testing.T) {
	cases := []struct {
		name string
		n    uint64
		ok   bool
	}{
		{"zero", 0, false},
		{"one", 1, true},
		{"pow2", 16, true},
		{"not_pow2", 17, false},
		{"too_large", MaxDomainSize + 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDomain(tc.n)
			if (err == nil) != tc.ok {
				t.Fatalf("NewDomain(%d) err=%v, want ok=%v", tc.n, err, tc.ok)
			}
		})
	}
}

func TestDomainNthMatchesGeneratorPower(t *testing.T) {
	d, err := NewDomain(8)
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	g := d.Generator()
	var want Scalar
	want.SetOne()
	for i := uint64(0); i < 3; i++ {
		want.Mul(&want, &g)
	}
	got := d.Nth(3)
	if !got.Equal(&want) {
		t.Fatalf("Nth(3) = %v, want %v", got, want)
	}
}

func TestDomainNthWrapsModuloSize(t *testing.T) {
	d, err := NewDomain(8)
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	a := d.Nth(1)
	b := d.Nth(9)
	if !a.Equal(&b) {
		t.Fatalf("Nth(1) != Nth(9): %v vs %v", a, b)
	}
}

func TestFFTRoundTrip(t *testing.T) {
	d, err := NewDomain(4)
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	coeffs := make([]Scalar, 4)
	for i := range coeffs {
		coeffs[i] = ScalarFromUint64(uint64(i + 1))
	}
	values := append([]Scalar(nil), coeffs...)
	d.FFT(values)
	d.FFTInverse(values)
	for i := range coeffs {
		if !values[i].Equal(&coeffs[i]) {
			t.Fatalf("round trip mismatch at %d: got %v want %v", i, values[i], coeffs[i])
		}
	}
}

func TestMSMLengthMismatch(t *testing.T) {
	_, err := MSM([]G1{G1Generator()}, nil)
	if err == nil {
		t.Fatalf("expected error on length mismatch")
	}
}

func TestMSMSinglePointIsScalarMul(t *testing.T) {
	g := G1Generator()
	s := ScalarFromUint64(7)
	got, err := MSM([]G1{g}, []Scalar{s})
	if err != nil {
		t.Fatalf("MSM: %v", err)
	}
	var want G1Jac
	var sBig big.Int
	s.BigInt(&sBig)
	var gJac G1Jac
	gJac.FromAffine(&g)
	want.ScalarMultiplication(&gJac, &sBig)
	var wantAffine G1
	wantAffine.FromJacobian(&want)
	if !got.Equal(&wantAffine) {
		t.Fatalf("MSM single point = %v, want %v", got, wantAffine)
	}
}

func TestPairingEqualReflexive(t *testing.T) {
	g1 := G1Generator()
	g2 := G2Generator()
	ok, err := PairingEqual(g1, g2, g1, g2)
	if err != nil {
		t.Fatalf("PairingEqual: %v", err)
	}
	if !ok {
		t.Fatalf("e(g1,g2) should equal itself")
	}
}

func TestPairingEqualDetectsMismatch(t *testing.T) {
	g1 := G1Generator()
	g2 := G2Generator()
	var doubled G1
	doubled.Add(&g1, &g1)
	ok, err := PairingEqual(doubled, g2, g1, g2)
	if err != nil {
		t.Fatalf("PairingEqual: %v", err)
	}
	if ok {
		t.Fatalf("e(2g1,g2) should not equal e(g1,g2)")
	}
}

func TestScalarBytesRoundTrip(t *testing.T) {
	s := ScalarFromUint64(123456789)
	b := ScalarBytes(s)
	got, err := ScalarFromBytes(b)
	if err != nil {
		t.Fatalf("ScalarFromBytes: %v", err)
	}
	if !got.Equal(&s) {
		t.Fatalf("round trip mismatch: got %v want %v", got, s)
	}
}
