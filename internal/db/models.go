package db

import (
	"encoding/json"
	"time"
)

// TranslationRecord maps phrasebook.translation_records.
type TranslationRecord struct {
	RecordID           string          `gorm:"column:record_id;type:uuid;primaryKey"`
	OriginalText       string          `gorm:"column:original_text;type:text;not null"`
	TranslatedText     string          `gorm:"column:translated_text;type:text;not null"`
	SourceLanguageCode string          `gorm:"column:source_language_code;type:text;not null"`
	TargetLanguageCode string          `gorm:"column:target_language_code;type:text;not null"`
	SourceLanguageName string          `gorm:"column:source_language_name;type:text;not null;default:''"`
	TargetLanguageName string          `gorm:"column:target_language_name;type:text;not null;default:''"`
	Timestamp          time.Time       `gorm:"column:timestamp;type:timestamptz;not null"`
	IsFavorite         bool            `gorm:"column:is_favorite;type:boolean;not null;default:false"`
	Provider           string          `gorm:"column:provider;type:text;not null"`
	UsageCount         int             `gorm:"column:usage_count;type:integer;not null;default:0"`
	LastAccessTime     *time.Time      `gorm:"column:last_access_time;type:timestamptz"`
	Tags               json.RawMessage `gorm:"column:tags;type:jsonb"`
	Notes              string          `gorm:"column:notes;type:text;not null;default:''"`
	CreatedAt          time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (TranslationRecord) TableName() string { return "phrasebook.translation_records" }

func autoMigrateModels() []any {
	return []any{
		&TranslationRecord{},
	}
}
