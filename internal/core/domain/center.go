package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxCenterDepth bounds the center hierarchy walk: direct center, master
// center, grand center. Parent pointers beyond this depth are never followed,
// so a malformed cyclic configuration cannot loop.
const MaxCenterDepth = 3

// Center is one node of the override hierarchy.
type Center struct {
	ID                   uuid.UUID  `json:"id"`
	RefCode              string     `json:"ref_code"`
	Name                 *string    `json:"name,omitempty"`
	WalletAddress        *string    `json:"wallet_address,omitempty"`
	ParentMasterCenterID *uuid.UUID `json:"parent_master_center_id,omitempty"`
	ParentGrandCenterID  *uuid.UUID `json:"parent_grand_center_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// CenterIndex provides the two lookups the center calculator needs.
type CenterIndex struct {
	byID      map[uuid.UUID]*Center
	byRefCode map[string]*Center
}

// NewCenterIndex builds an index over the full center list.
func NewCenterIndex(centers []Center) *CenterIndex {
	idx := &CenterIndex{
		byID:      make(map[uuid.UUID]*Center, len(centers)),
		byRefCode: make(map[string]*Center, len(centers)),
	}
	for i := range centers {
		c := &centers[i]
		idx.byID[c.ID] = c
		idx.byRefCode[c.RefCode] = c
	}
	return idx
}

// ByID looks a center up by primary id. Returns nil when absent.
func (idx *CenterIndex) ByID(id uuid.UUID) *Center {
	return idx.byID[id]
}

// ByRefCode looks a center up by reference code. Returns nil when absent.
func (idx *CenterIndex) ByRefCode(code string) *Center {
	return idx.byRefCode[code]
}

// Lineage resolves the beneficiary chain for a direct center: the center
// itself, then its master and grand parents where they resolve. Unresolvable
// parents are skipped, not errors. The result length is at most
// MaxCenterDepth.
func (idx *CenterIndex) Lineage(centerID uuid.UUID) []*Center {
	direct := idx.byID[centerID]
	if direct == nil {
		return nil
	}
	chain := make([]*Center, 0, MaxCenterDepth)
	chain = append(chain, direct)
	if direct.ParentMasterCenterID != nil {
		if master := idx.byID[*direct.ParentMasterCenterID]; master != nil {
			chain = append(chain, master)
		}
	}
	if direct.ParentGrandCenterID != nil {
		if grand := idx.byID[*direct.ParentGrandCenterID]; grand != nil {
			chain = append(chain, grand)
		}
	}
	return chain
}
