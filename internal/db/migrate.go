package db

import (
	"context"
	"fmt"
	"strings"
)

const preAutoMigrateSQL = `
CREATE SCHEMA IF NOT EXISTS phrasebook;
`

const postAutoMigrateSQL = `
CREATE INDEX IF NOT EXISTS idx_translation_records_timestamp
	ON phrasebook.translation_records ("timestamp" DESC);
CREATE INDEX IF NOT EXISTS idx_translation_records_language_pair
	ON phrasebook.translation_records (source_language_code, target_language_code, "timestamp" DESC);
CREATE INDEX IF NOT EXISTS idx_translation_records_favorite
	ON phrasebook.translation_records (is_favorite)
	WHERE is_favorite;
`

func (p *Pool) autoMigrate(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	if err := executeMigrationSQL(ctx, p, "pre-auto-migrate", preAutoMigrateSQL); err != nil {
		return err
	}

	if err := p.gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...); err != nil {
		return fmt.Errorf("gorm auto-migrate models: %w", err)
	}

	if err := executeMigrationSQL(ctx, p, "post-auto-migrate", postAutoMigrateSQL); err != nil {
		return err
	}

	return nil
}

func executeMigrationSQL(ctx context.Context, p *Pool, label, sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return nil
	}
	if err := p.gdb.WithContext(ctx).Exec(trimmed).Error; err != nil {
		return fmt.Errorf("execute %s SQL: %w", label, err)
	}
	return nil
}
