package export

import "github.com/njcx/auditlogd/entry"

// VerifyChainResult reports the outcome of walking a stream's entries
// against the per-producer chaining discipline (spec §9, supplemented by
// entry.ChainHasher).
type VerifyChainResult struct {
	Verified int // entries whose previous_hash matched
	Broken   []int
}

// VerifyChain walks entries in order and checks each one's previous_hash
// against the hash of the entry immediately before it, grounded on
// _examples/original_source/include/Segment.hpp's verifyIntegrity().
// Entries with no previous_hash set (chaining unused) are skipped, not
// counted as broken — chaining is opt-in (spec §9).
func VerifyChain(entries []entry.Entry) VerifyChainResult {
	var result VerifyChainResult
	for i := 1; i < len(entries); i++ {
		cur := entries[i]
		if len(cur.PreviousHash()) == 0 {
			continue
		}
		if entry.VerifyChain(entries[i-1], cur) {
			result.Verified++
		} else {
			result.Broken = append(result.Broken, i)
		}
	}
	return result
}
