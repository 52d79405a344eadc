package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// taskIndexes back the owner-scoped list queries
var taskIndexes = []index{
	{"tasks", "idx_tasks_owner_id", "owner_id"},
	{"tasks", "idx_tasks_owner_created_at", "owner_id, created_at"},
	{"tasks", "idx_tasks_label", "label"},
	{"tasks", "idx_tasks_due_date", "due_date"},
}

// AddIndexes adds the secondary indexes that are missing
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()

	for _, idx := range taskIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index",
			zap.String("index", idx.name),
			zap.String("table", idx.table),
			zap.String("columns", idx.columns))
	}

	return nil
}
