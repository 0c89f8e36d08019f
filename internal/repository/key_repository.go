// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"key-custody-service/internal/domain"
)

// KeyEntryModel はgorm用のモデル定義。
type KeyEntryModel struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	Alias       string    `gorm:"type:varchar(128);not null;uniqueIndex:uk_alias"`
	Status      string    `gorm:"type:enum('active','disabled');not null;default:'active';index:idx_status"`
	WrappedBlob []byte    `gorm:"type:blob;not null"`
	CreatedAt   time.Time `gorm:"type:datetime(6);not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:datetime(6);not null;autoUpdateTime"`
}

// TableName はテーブル名を返す。
func (KeyEntryModel) TableName() string {
	return "key_entries"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (e *KeyEntryModel) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// toDomain はモデルをドメインエンティティに変換する。
func (e *KeyEntryModel) toDomain() *domain.KeyEntry {
	return &domain.KeyEntry{
		ID:          e.ID,
		Alias:       e.Alias,
		Status:      domain.KeyStatus(e.Status),
		WrappedBlob: e.WrappedBlob,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// KeyEntryRepository はデータアクセスを提供する。
type KeyEntryRepository struct {
	db *gorm.DB
}

// NewKeyEntryRepository は新しいKeyEntryRepositoryを生成する。
func NewKeyEntryRepository(db *gorm.DB) *KeyEntryRepository {
	return &KeyEntryRepository{db: db}
}

// ExistsByAlias は指定されたエイリアスの鍵が存在するか確認する。
func (r *KeyEntryRepository) ExistsByAlias(ctx context.Context, alias string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&KeyEntryModel{}).
		Where("alias = ?", alias).
		Count(&count).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to count keys by alias",
			"operation", "exists_by_alias",
			"alias", alias,
			"error", err,
		)
		return false, err
	}
	return count > 0, nil
}

// Create は新しい鍵エントリを保存する。
func (r *KeyEntryRepository) Create(ctx context.Context, entry *domain.KeyEntry) error {
	model := &KeyEntryModel{
		ID:          entry.ID,
		Alias:       entry.Alias,
		Status:      string(entry.Status),
		WrappedBlob: entry.WrappedBlob,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		slog.ErrorContext(ctx, "failed to create key entry",
			"operation", "create",
			"alias", entry.Alias,
			"error", err,
		)
		return err
	}
	// gormで設定された値をドメインエンティティに反映
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	entry.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByAlias は指定されたエイリアスの鍵エントリを取得する。
func (r *KeyEntryRepository) FindByAlias(ctx context.Context, alias string) (*domain.KeyEntry, error) {
	var model KeyEntryModel
	err := r.db.WithContext(ctx).
		Where("alias = ?", alias).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find key entry",
			"operation", "find_by_alias",
			"alias", alias,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAll は全鍵エントリを取得する。
func (r *KeyEntryRepository) FindAll(ctx context.Context) ([]*domain.KeyEntry, error) {
	var models []KeyEntryModel
	err := r.db.WithContext(ctx).
		Order("alias ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find all key entries",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}

	entries := make([]*domain.KeyEntry, len(models))
	for i, m := range models {
		entries[i] = m.toDomain()
	}
	return entries, nil
}

// UpdateStatus は指定されたIDの鍵のステータスを更新する。
func (r *KeyEntryRepository) UpdateStatus(ctx context.Context, id string, status domain.KeyStatus) error {
	err := r.db.WithContext(ctx).
		Model(&KeyEntryModel{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to update status",
			"operation", "update_status",
			"id", id,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}
