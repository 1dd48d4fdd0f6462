package sketch

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestHyperLogLogEmpty(t *testing.T) {
	hll, err := NewHyperLogLog(nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := hll.Estimate(); got != 0 {
		t.Errorf("Estimate() on empty sketch = %d, want 0", got)
	}
}

func TestHyperLogLogInvalidPrecision(t *testing.T) {
	for _, p := range []int{3, 0, -1, 19, 64} {
		if _, err := NewHyperLogLog(nil, p); !errors.Is(err, ErrInvalidPrecision) {
			t.Errorf("NewHyperLogLog(precision=%d): err = %v, want ErrInvalidPrecision", p, err)
		}
	}
	for _, p := range []int{4, 10, 18} {
		if _, err := NewHyperLogLog(nil, p); err != nil {
			t.Errorf("NewHyperLogLog(precision=%d): unexpected err %v", p, err)
		}
	}
}

func TestHyperLogLogIdempotent(t *testing.T) {
	hll, _ := NewHyperLogLog(nil, 10)
	key := []byte("the-one-key")

	hll.Add(key)
	first := hll.Estimate()
	for i := 0; i < 1000; i++ {
		hll.Add(key)
	}
	if got := hll.Estimate(); got != first {
		t.Errorf("estimate moved from %d to %d on duplicate adds", first, got)
	}
	if first != 1 {
		t.Errorf("Estimate() after one distinct key = %d, want 1", first)
	}
}

func TestHyperLogLogAccuracy(t *testing.T) {
	hll, _ := NewHyperLogLog(nil, 10)
	const n = 10_000

	for i := 0; i < n; i++ {
		hll.Add([]byte(fmt.Sprintf("key-%d", i)))
	}

	est := float64(hll.Estimate())
	se := StandardError(hll.RegisterCount())
	if relErr := math.Abs(est-n) / n; relErr > 3*se {
		t.Errorf("estimate %v for %d distinct keys: relative error %.4f exceeds 3 standard errors (%.4f)",
			est, n, relErr, 3*se)
	}
}

func TestHyperLogLogSmallRange(t *testing.T) {
	// Few distinct keys relative to m keeps Estimate on the linear-counting
	// branch, which is near exact there.
	hll, _ := NewHyperLogLog(nil, 12)
	const n = 100
	for i := 0; i < n; i++ {
		hll.Add([]byte(fmt.Sprintf("small-%d", i)))
	}
	est := hll.Estimate()
	if est < n-5 || est > n+5 {
		t.Errorf("linear-counting estimate %d for %d distinct keys", est, n)
	}
}

func TestHyperLogLogMergeUnion(t *testing.T) {
	a, _ := NewHyperLogLog(nil, 12)
	b, _ := NewHyperLogLog(nil, 12)
	whole, _ := NewHyperLogLog(nil, 12)

	// Overlapping key ranges: union is 0..14999.
	for i := 0; i < 10_000; i++ {
		k := []byte(fmt.Sprintf("u-%d", i))
		a.Add(k)
		whole.Add(k)
	}
	for i := 5_000; i < 15_000; i++ {
		k := []byte(fmt.Sprintf("u-%d", i))
		b.Add(k)
		whole.Add(k)
	}

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}
	if got, want := a.Estimate(), whole.Estimate(); got != want {
		t.Errorf("merged estimate %d, single-stream sketch over the union says %d", got, want)
	}

	se := StandardError(a.RegisterCount())
	if relErr := math.Abs(float64(a.Estimate())-15_000) / 15_000; relErr > 3*se {
		t.Errorf("union estimate %d for 15000 distinct keys: relative error %.4f exceeds %.4f",
			a.Estimate(), relErr, 3*se)
	}
}

func TestHyperLogLogMergePrecisionMismatch(t *testing.T) {
	a, _ := NewHyperLogLog(nil, 10)
	b, _ := NewHyperLogLog(nil, 12)
	if err := a.Merge(b); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("merge of mismatched precisions: err = %v, want ErrShapeMismatch", err)
	}
	if err := a.Merge(nil); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("merge of nil: err = %v, want ErrShapeMismatch", err)
	}
}

func TestHyperLogLogCloneAndReset(t *testing.T) {
	hll, _ := NewHyperLogLog(nil, 10)
	for i := 0; i < 500; i++ {
		hll.Add([]byte(fmt.Sprintf("c-%d", i)))
	}

	dup := hll.Clone()
	for i := 500; i < 1000; i++ {
		dup.Add([]byte(fmt.Sprintf("c-%d", i)))
	}
	if hll.Estimate() >= dup.Estimate() {
		t.Errorf("clone adds leaked into the original: %d vs %d", hll.Estimate(), dup.Estimate())
	}

	hll.Reset()
	if got := hll.Estimate(); got != 0 {
		t.Errorf("Estimate() after Reset = %d, want 0", got)
	}
}

func BenchmarkHyperLogLogAdd(b *testing.B) {
	hll, _ := NewHyperLogLog(nil, 14)
	key := make([]byte, 16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key[0], key[1], key[2], key[3] = byte(i), byte(i>>8), byte(i>>16), byte(i>>24)
		hll.Add(key)
	}
}

func BenchmarkHyperLogLogEstimate(b *testing.B) {
	hll, _ := NewHyperLogLog(nil, 14)
	for i := 0; i < 100_000; i++ {
		hll.Add([]byte(fmt.Sprintf("b-%d", i)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hll.Estimate()
	}
}
