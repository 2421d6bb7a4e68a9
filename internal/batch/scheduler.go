package batch

import (
	"github.com/wonny/funddash/internal/contracts"
)

// Group is one provider-sized batch of fetch requests.
type Group struct {
	Index    int
	Tickers  []string
	Kind     contracts.DataKind
	Requests []contracts.FetchRequest
}

// Schedule partitions tickers into groups of at most batchSize, in input
// order. Duplicate tickers are dropped, keeping the first occurrence.
// The partitioning is deterministic: the same (tickers, kind, batchSize)
// always produces identical groups, which makes reprocessing idempotent.
func Schedule(tickers []string, kind contracts.DataKind, batchSize int) []Group {
	return ScheduleFrom(tickers, kind, batchSize, 0)
}

// ScheduleFrom is Schedule resuming at a group index: after a failure at
// group N, re-running with startIndex=N skips the already-processed
// prefix without changing group boundaries.
func ScheduleFrom(tickers []string, kind contracts.DataKind, batchSize int, startIndex int) []Group {
	if batchSize < 1 {
		batchSize = 1
	}

	deduped := dedupe(tickers)

	var groups []Group
	for i := 0; i < len(deduped); i += batchSize {
		end := i + batchSize
		if end > len(deduped) {
			end = len(deduped)
		}

		index := i / batchSize
		if index < startIndex {
			continue
		}

		chunk := deduped[i:end]
		requests := make([]contracts.FetchRequest, len(chunk))
		for j, tk := range chunk {
			requests[j] = contracts.FetchRequest{Ticker: tk, Kind: kind}
		}

		groups = append(groups, Group{
			Index:    index,
			Tickers:  chunk,
			Kind:     kind,
			Requests: requests,
		})
	}

	return groups
}

func dedupe(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, tk := range tickers {
		if tk == "" || seen[tk] {
			continue
		}
		seen[tk] = true
		out = append(out, tk)
	}
	return out
}
