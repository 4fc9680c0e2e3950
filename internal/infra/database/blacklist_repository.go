package database

import (
	"context"
	"database/sql"

	"github.com/rollingriches/leadsync/internal/entity"
)

type BlacklistRepository struct {
	DB *sql.DB
}

func NewBlacklistRepository(db *sql.DB) *BlacklistRepository {
	return &BlacklistRepository{DB: db}
}

// All loads every rule. The table is small, static reference data; the
// normalizer holds the full set in memory for the life of the process.
func (r *BlacklistRepository) All(ctx context.Context) ([]*entity.BlacklistRule, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, pattern, reason, created_at
		FROM blacklist_rules
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*entity.BlacklistRule
	for rows.Next() {
		var (
			rule   entity.BlacklistRule
			reason sql.NullString
		)
		if err := rows.Scan(&rule.ID, &rule.Pattern, &reason, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rule.Reason = reason.String
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}
