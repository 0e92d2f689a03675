package postgres

import (
	"context"
	"fmt"

	"github.com/RSAC2025/rsac/internal/core/domain"
)

// CenterRepo implements ports.CenterRepository.
type CenterRepo struct {
	pool Pool
}

// NewCenterRepo creates a new CenterRepo.
func NewCenterRepo(pool Pool) *CenterRepo {
	return &CenterRepo{pool: pool}
}

// List fetches the full center hierarchy.
func (r *CenterRepo) List(ctx context.Context) ([]domain.Center, error) {
	query := `SELECT id, ref_code, name, wallet_address,
		parent_master_center_id, parent_grand_center_id, created_at
		FROM centers ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list centers: %w", err)
	}
	defer rows.Close()

	var centers []domain.Center
	for rows.Next() {
		var c domain.Center
		err := rows.Scan(
			&c.ID, &c.RefCode, &c.Name, &c.WalletAddress,
			&c.ParentMasterCenterID, &c.ParentGrandCenterID, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan center row: %w", err)
		}
		centers = append(centers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate center rows: %w", err)
	}
	return centers, nil
}
