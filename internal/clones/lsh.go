package clones

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// LshHasher computes MinHash signatures and finds candidate pairs sharing
// at least one band bucket, grounded on cytoscnpy/src/clones/hasher.rs's
// LshHasher (num_bands/rows_per_band/signature_size, banded MinHash). Uses
// the pack's xxhash dependency (already wired for fast content hashing
// elsewhere) in place of the Rust original's generic hash_with_seed.
type LshHasher struct {
	numBands    int
	rowsPerBand int
}

// DefaultLSHBands/DefaultLSHRows mirror config.Clones' defaults (20 bands
// x 5 rows = 100-slot signature).
const (
	DefaultLSHBands = 20
	DefaultLSHRows  = 5
)

// NewLshHasher constructs a hasher with numBands bands of rowsPerBand rows
// each (signature size = numBands*rowsPerBand).
func NewLshHasher(numBands, rowsPerBand int) *LshHasher {
	if numBands <= 0 {
		numBands = DefaultLSHBands
	}
	if rowsPerBand <= 0 {
		rowsPerBand = DefaultLSHRows
	}
	return &LshHasher{numBands: numBands, rowsPerBand: rowsPerBand}
}

func (h *LshHasher) signatureSize() int { return h.numBands * h.rowsPerBand }

// GenerateShingles builds 3-gram shingles over the kind sequence, falling
// back to individual kinds when the sequence has fewer than 3 elements.
func GenerateShingles(kinds []string) []string {
	if len(kinds) < 3 {
		out := make([]string, len(kinds))
		copy(out, kinds)
		return out
	}
	out := make([]string, 0, len(kinds)-2)
	for i := 0; i+3 <= len(kinds); i++ {
		out = append(out, kinds[i]+"\x00"+kinds[i+1]+"\x00"+kinds[i+2])
	}
	return out
}

// Signature computes a MinHash signature over shingles: for each of the
// numBands*rowsPerBand seeded hash functions, the minimum hash across all
// shingles is taken.
func (h *LshHasher) Signature(shingles []string) []uint64 {
	sig := make([]uint64, h.signatureSize())
	for slot := range sig {
		sig[slot] = ^uint64(0)
	}
	if len(shingles) == 0 {
		return sig
	}
	for _, s := range shingles {
		for slot := range sig {
			hv := hashWithSeed(s, uint64(slot))
			if hv < sig[slot] {
				sig[slot] = hv
			}
		}
	}
	return sig
}

// FindCandidates groups signatures into band buckets and returns every
// pair of indices that shares at least one bucket, avoiding the full O(n^2)
// comparison calls out as the reason for LSH pruning.
func (h *LshHasher) FindCandidates(signatures [][]uint64) [][2]int {
	buckets := make(map[uint64][]int)
	for idx, sig := range signatures {
		for band := 0; band < h.numBands; band++ {
			start := band * h.rowsPerBand
			end := start + h.rowsPerBand
			if end > len(sig) {
				break
			}
			bh := bandHash(band, sig[start:end])
			buckets[bh] = append(buckets[bh], idx)
		}
	}

	seen := make(map[[2]int]bool)
	var pairs [][2]int
	for _, members := range buckets {
		if len(members) < 2 {
			continue
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if a > b {
					a, b = b, a
				}
				key := [2]int{a, b}
				if seen[key] {
					continue
				}
				seen[key] = true
				pairs = append(pairs, key)
			}
		}
	}
	return pairs
}

func bandHash(band int, rows []uint64) uint64 {
	buf := make([]byte, 8+8*len(rows))
	binary.LittleEndian.PutUint64(buf, uint64(band))
	for i, r := range rows {
		binary.LittleEndian.PutUint64(buf[8+8*i:], r)
	}
	return xxhash.Sum64(buf)
}

func hashWithSeed(s string, seed uint64) uint64 {
	buf := make([]byte, 8+len(s))
	binary.LittleEndian.PutUint64(buf, seed)
	copy(buf[8:], s)
	return xxhash.Sum64(buf)
}
