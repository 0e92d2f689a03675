package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/RSAC2025/rsac/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// RewardSettingRepo implements ports.RewardSettingRepository. Settings are
// administered externally; this repo only reads the active row per category.
type RewardSettingRepo struct {
	pool Pool
}

// NewRewardSettingRepo creates a new RewardSettingRepo.
func NewRewardSettingRepo(pool Pool) *RewardSettingRepo {
	return &RewardSettingRepo{pool: pool}
}

// Get returns the setting for category, or nil when none is configured.
func (r *RewardSettingRepo) Get(ctx context.Context, category string) (*domain.RewardSetting, error) {
	query := `SELECT category, self_rate, ref1_rate, ref2_rate, center_rate,
		master_center_rate, grand_center_rate, tuition_center_rate, updated_at
		FROM reward_settings WHERE category = $1`

	s := &domain.RewardSetting{}
	err := r.pool.QueryRow(ctx, query, category).Scan(
		&s.Category, &s.SelfRate, &s.Ref1Rate, &s.Ref2Rate, &s.CenterRate,
		&s.MasterCenterRate, &s.GrandCenterRate, &s.TuitionCenterRate, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reward setting: %w", err)
	}
	return s, nil
}
