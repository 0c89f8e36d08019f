package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"key-custody-service/internal/domain"
	"key-custody-service/internal/hsm"
)

// KeyParameterModel はkey_parametersテーブルのモデル。データセルはタグの
// ペイロードクラスによって整数・ブロブ・NULLのいずれかになるため、型を
// 固定せずSQLFieldで受ける。
type KeyParameterModel struct {
	ID            string          `gorm:"type:char(36);primaryKey"`
	KeyID         string          `gorm:"type:char(36);not null;index:idx_key_id"`
	Tag           uint32          `gorm:"type:bigint;not null"`
	Data          domain.SQLField `gorm:"type:blob"`
	SecurityLevel int32           `gorm:"not null"`
}

// TableName はテーブル名を返す。
func (KeyParameterModel) TableName() string {
	return "key_parameters"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *KeyParameterModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// toDomain はモデルをドメインのKeyParameterに復元する。
func (m *KeyParameterModel) toDomain() (domain.KeyParameter, error) {
	return domain.NewKeyParameterFromSQL(hsm.Tag(m.Tag), &m.Data, hsm.SecurityLevel(m.SecurityLevel))
}

// KeyParameterRepository は鍵パラメータのデータアクセスを提供する。
type KeyParameterRepository struct {
	db *gorm.DB
}

// NewKeyParameterRepository は新しいKeyParameterRepositoryを生成する。
func NewKeyParameterRepository(db *gorm.DB) *KeyParameterRepository {
	return &KeyParameterRepository{db: db}
}

// SaveAll は鍵に紐づくパラメータを一括保存する。
func (r *KeyParameterRepository) SaveAll(ctx context.Context, keyID string, params []domain.KeyParameter) error {
	if len(params) == 0 {
		return nil
	}

	models := make([]KeyParameterModel, len(params))
	for i, p := range params {
		cell, err := p.KeyParameterValue().Value()
		if err != nil {
			return fmt.Errorf("converting parameter %s: %w", p.Tag(), err)
		}
		models[i] = KeyParameterModel{
			KeyID:         keyID,
			Tag:           uint32(p.Tag()),
			Data:          domain.NewSQLField(cell),
			SecurityLevel: int32(p.SecurityLevel()),
		}
	}

	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		slog.ErrorContext(ctx, "failed to save key parameters",
			"operation", "save_all",
			"key_id", keyID,
			"count", len(params),
			"error", err,
		)
		return err
	}
	return nil
}

// FindAllByKeyID は指定された鍵の全パラメータをタグ順に取得する。
func (r *KeyParameterRepository) FindAllByKeyID(ctx context.Context, keyID string) ([]domain.KeyParameter, error) {
	var models []KeyParameterModel
	err := r.db.WithContext(ctx).
		Where("key_id = ?", keyID).
		Order("tag ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find key parameters",
			"operation", "find_all_by_key_id",
			"key_id", keyID,
			"error", err,
		)
		return nil, err
	}

	params := make([]domain.KeyParameter, 0, len(models))
	for _, m := range models {
		param, err := m.toDomain()
		if err != nil {
			slog.ErrorContext(ctx, "failed to restore key parameter",
				"operation", "find_all_by_key_id",
				"key_id", keyID,
				"tag", m.Tag,
				"error", err,
			)
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

// DeleteByKeyID は指定された鍵の全パラメータを削除する。
func (r *KeyParameterRepository) DeleteByKeyID(ctx context.Context, keyID string) error {
	err := r.db.WithContext(ctx).
		Where("key_id = ?", keyID).
		Delete(&KeyParameterModel{}).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete key parameters",
			"operation", "delete_by_key_id",
			"key_id", keyID,
			"error", err,
		)
		return err
	}
	return nil
}
