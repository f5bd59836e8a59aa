package ops

import (
	"math/rand"
	"testing"

	"github.com/dot5enko/segquery/bits"
	"github.com/dot5enko/segquery/schema"
)

func matchedIds(dst *bits.Bitfield) []uint32 {
	return dst.AppendDocIds(0, nil)
}

func expectIds(t *testing.T, dst *bits.Bitfield, n int, expected ...uint32) {
	t.Helper()

	if n != len(expected) {
		t.Fatalf("Expected %d matches but got %d: %v", len(expected), n, matchedIds(dst))
	}

	got := matchedIds(dst)
	for i, v := range expected {
		if got[i] != v {
			t.Errorf("match %d: expected row %d got %d", i, v, got[i])
		}
	}
}

func TestInRangeTail(t *testing.T) {

	var dst bits.Bitfield
	n := InRange([]uint64{1050, 9000, 2000}, 1024, 8192, &dst)

	expectIds(t, &dst, n, 0, 2)
}

func TestInRangeFloatsAcrossWords(t *testing.T) {

	input := make([]float64, 130)
	input[7] = 7000
	input[64] = 1500
	input[129] = 1024

	var dst bits.Bitfield
	n := InRange(input, 1024.0, 8192.0, &dst)

	expectIds(t, &dst, n, 7, 64, 129)
}

func TestInRangeSignedNegativeValues(t *testing.T) {

	input := []int32{-5, 0, 3, 9, 10, -100, 4, 5, 6, 7}

	var dst bits.Bitfield
	n := InRange(input, 0, 10, &dst)

	expectIds(t, &dst, n, 1, 2, 3, 6, 7, 8, 9)
}

func TestEmptyRangeClearsMask(t *testing.T) {

	var dst bits.Bitfield
	dst.Fill(schema.BlockRowsSize)

	if n := InRange([]int64{1, 2, 3}, 5, 5, &dst); n != 0 || len(matchedIds(&dst)) != 0 {
		t.Errorf("empty range matched %d, mask holds %d", n, len(matchedIds(&dst)))
	}

	dst.Fill(schema.BlockRowsSize)

	if n := InIdRange([]uint32{1, 2, 3}, 3, 1, &dst); n != 0 || len(matchedIds(&dst)) != 0 {
		t.Errorf("inverted id range matched %d, mask holds %d", n, len(matchedIds(&dst)))
	}
}

func TestIdRangeExcludesIdsBelowLow(t *testing.T) {

	ids := []uint32{0, 1, 2, 3, 4, 5, 1, 0}

	var dst bits.Bitfield
	n := InIdRange(ids, 2, 4, &dst)

	expectIds(t, &dst, n, 2, 3)
}

func TestIdSet(t *testing.T) {

	set := []bool{false, true, false, true}

	var dst bits.Bitfield
	n := InIdSet([]uint32{0, 1, 2, 3, 3, 2}, set, &dst)

	expectIds(t, &dst, n, 1, 3, 4)
}

func TestEqualOverwritesStaleWords(t *testing.T) {

	var dst bits.Bitfield
	dst.Fill(schema.BlockRowsSize)

	n := Equal([]uint32{7, 1, 7, 7, 2, 3, 4, 7, 9, 7}, 7, &dst)

	expectIds(t, &dst, n, 0, 2, 3, 7, 9)

	if len(matchedIds(&dst)) != n {
		t.Errorf("mask has %d bits, kernel reported %d", len(matchedIds(&dst)), n)
	}
}

func TestMatchingStrings(t *testing.T) {

	var dst bits.Bitfield
	n := Matching([]string{"ua", "pl", "ua", "de"}, func(s string) bool { return s > "e" }, &dst)

	expectIds(t, &dst, n, 0, 1, 2)
}

func TestGreaterAndLessAreComplementary(t *testing.T) {

	input := make([]int64, 1000)
	for i := range input {
		input[i] = rand.Int63n(100)
	}

	var dst bits.Bitfield

	bigger := Greater(input, 50, &dst)
	smaller := Less(input, 50, &dst)
	equal := Equal(input, 50, &dst)

	if bigger+smaller+equal != len(input) {
		t.Errorf("expected %d total, got %d + %d + %d", len(input), bigger, smaller, equal)
	}

	notEqual := NotEqual(input, 50, &dst)
	if notEqual != bigger+smaller {
		t.Errorf("expected %d not equal values, got %d", bigger+smaller, notEqual)
	}
}

func BenchmarkInIdRange(b *testing.B) {

	size := schema.BlockRowsSize

	var lo, hi uint32 = 4096, 8192

	totalCount := 0
	input := make([]uint32, size)

	for i := 0; i < size; i++ {
		val := uint32(rand.Int63n(50000))
		input[i] = val

		if val >= lo && val < hi {
			totalCount++
		}
	}

	var dst bits.Bitfield

	for b.Loop() {
		if n := InIdRange(input, lo, hi, &dst); n != totalCount {
			b.Fatalf("Benchmark failed: expected %d but got %d", totalCount, n)
		}
	}
}

func BenchmarkInRangeFloats(b *testing.B) {

	size := schema.BlockRowsSize

	var lo, hi float64 = 4096, 8192

	totalCount := 0
	input := make([]float64, size)

	for i := 0; i < size; i++ {
		val := float64(rand.Int63n(50000))
		input[i] = val

		if val >= lo && val < hi {
			totalCount++
		}
	}

	var dst bits.Bitfield

	for b.Loop() {
		if n := InRange(input, lo, hi, &dst); n != totalCount {
			b.Fatalf("Benchmark failed: expected %d but got %d", totalCount, n)
		}
	}
}
