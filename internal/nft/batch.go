package nft

import "fmt"

// BatchOp is one operation within a NFT_BATCH_OPERATIONS envelope.
type BatchOp struct {
	Kind string // "LIST", "DELIST", "MINT", "TRANSFER"
	Args map[string]any
}

// BatchResult reports the outcome of one op within a batch.
type BatchResult struct {
	Index   int
	Success bool
	Error   string
}

// conflictKey identifies operations in the same batch that target the
// same listing or mint the same token, which spec §4.7's pre-check
// rejects outright (no expiring one op by the result of another in the
// same envelope).
func conflictKey(op BatchOp) (string, bool) {
	switch op.Kind {
	case "LIST", "DELIST":
		if tokenID, ok := op.Args["tokenId"].(string); ok {
			return "listing:" + tokenID, true
		}
	case "MINT":
		if collectionID, ok := op.Args["collectionId"].(string); ok {
			return "mint:" + collectionID, true
		}
	}
	return "", false
}

// RunBatch implements NFT_BATCH_OPERATIONS (spec §4.7): up to 50 ops, a
// pre-check rejecting same-token double list/delist or same-collection
// double mint within the batch, then atomic (first failure aborts the
// rest) or non-atomic (each independent, partial success allowed)
// execution depending on the atomic flag.
func (m *Marketplace) RunBatch(ops []BatchOp, atomicMode bool, dispatch func(BatchOp) error) ([]BatchResult, error) {
	if len(ops) > 50 {
		return nil, fmt.Errorf("runBatch: %d operations exceeds the 50-operation cap", len(ops))
	}

	seen := make(map[string]int)
	for i, op := range ops {
		key, has := conflictKey(op)
		if !has {
			continue
		}
		if prior, exists := seen[key]; exists {
			return nil, fmt.Errorf("runBatch: operation %d conflicts with operation %d on %s", i, prior, key)
		}
		seen[key] = i
	}

	results := make([]BatchResult, 0, len(ops))
	for i, op := range ops {
		err := dispatch(op)
		if err != nil {
			results = append(results, BatchResult{Index: i, Success: false, Error: err.Error()})
			if atomicMode {
				return results, fmt.Errorf("runBatch: operation %d failed: %w", i, err)
			}
			continue
		}
		results = append(results, BatchResult{Index: i, Success: true})
	}
	return results, nil
}
