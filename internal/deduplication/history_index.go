package deduplication

import (
	"context"

	"github.com/clinicaldwh/drwh/internal/types"
)

// HistoryIndex resolves external identifiers against history rows held in
// memory. It follows the store's rules: exact string match on master rows,
// ErrNotFound on no match, ErrAmbiguousMatch when master rows of several
// clusters share the identifier.
type HistoryIndex struct {
	masters map[string][]int64
}

// NewHistoryIndex indexes the master rows of history.
func NewHistoryIndex(history []types.PatientHistory) *HistoryIndex {
	idx := &HistoryIndex{masters: make(map[string][]int64)}
	for _, h := range history {
		if !h.Master {
			continue
		}
		nums := idx.masters[h.HospitalPatientID]
		if !containsNum(nums, h.PatientNum) {
			idx.masters[h.HospitalPatientID] = append(nums, h.PatientNum)
		}
	}
	return idx
}

// ResolvePatientNum returns the canonical patient_num for externalID.
func (idx *HistoryIndex) ResolvePatientNum(ctx context.Context, externalID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	nums := idx.masters[externalID]
	if len(nums) != 1 {
		return 0, types.NewResolutionError(externalID, nums)
	}
	return nums[0], nil
}

func containsNum(nums []int64, n int64) bool {
	for _, v := range nums {
		if v == n {
			return true
		}
	}
	return false
}
