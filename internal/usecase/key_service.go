// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"fmt"
	"time"

	"key-custody-service/internal/domain"
	"key-custody-service/internal/hsm"
)

// KeyEntryRepository は鍵エントリのデータアクセスのインターフェース。
type KeyEntryRepository interface {
	ExistsByAlias(ctx context.Context, alias string) (bool, error)
	Create(ctx context.Context, entry *domain.KeyEntry) error
	FindByAlias(ctx context.Context, alias string) (*domain.KeyEntry, error)
	FindAll(ctx context.Context) ([]*domain.KeyEntry, error)
	UpdateStatus(ctx context.Context, id string, status domain.KeyStatus) error
}

// KeyParameterRepository は鍵パラメータのデータアクセスのインターフェース。
type KeyParameterRepository interface {
	SaveAll(ctx context.Context, keyID string, params []domain.KeyParameter) error
	FindAllByKeyID(ctx context.Context, keyID string) ([]domain.KeyParameter, error)
	DeleteByKeyID(ctx context.Context, keyID string) error
}

// SecureModule は鍵生成を行うセキュアモジュールのインターフェース。
type SecureModule interface {
	GenerateKey(ctx context.Context, params []hsm.KeyParameter) (*hsm.GeneratedKey, error)
}

// KMSClient は鍵素材のラップ/アンラップのインターフェース。
type KMSClient interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// KeyService は保管鍵に関するビジネスロジックを提供する。
type KeyService struct {
	keys      KeyEntryRepository
	params    KeyParameterRepository
	module    SecureModule
	kmsClient KMSClient
}

// NewKeyService は新しいKeyServiceを生成する。
func NewKeyService(keys KeyEntryRepository, params KeyParameterRepository, module SecureModule, kmsClient KMSClient) *KeyService {
	return &KeyService{
		keys:      keys,
		params:    params,
		module:    module,
		kmsClient: kmsClient,
	}
}

// CreateKey は指定されたエイリアスで新しい鍵を生成し、特性と共に保存する。
func (s *KeyService) CreateKey(ctx context.Context, alias string, wireParams []hsm.KeyParameter) (*domain.KeyMetadata, error) {
	// 既存チェック
	exists, err := s.keys.ExistsByAlias(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("checking existing key: %w", err)
	}
	if exists {
		return nil, domain.ErrKeyAlreadyExists
	}

	// セキュアモジュールで鍵を生成
	generated, err := s.module.GenerateKey(ctx, wireParams)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	// KMSで鍵素材をラップ
	wrapped, err := s.kmsClient.Encrypt(ctx, generated.KeyBlob)
	if err != nil {
		return nil, fmt.Errorf("encrypting key blob: %w", err)
	}

	// DBに保存
	entry := &domain.KeyEntry{
		Alias:       alias,
		Status:      domain.KeyStatusActive,
		WrappedBlob: wrapped,
	}
	if err := s.keys.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("creating key entry: %w", err)
	}

	// モジュールが返した特性に、ホスト側が保証するパラメータを加えて保存する
	stored := make([]domain.KeyParameter, 0, len(wireParams)+1)
	for _, block := range generated.Characteristics {
		for _, p := range block.Parameters {
			stored = append(stored, domain.NewKeyParameter(domain.FromWire(p), block.SecurityLevel))
		}
	}
	stored = append(stored, domain.NewKeyParameter(
		domain.CreationDateTime(time.Now().UnixMilli()),
		hsm.SecurityLevelKeystore,
	))
	if err := s.params.SaveAll(ctx, entry.ID, stored); err != nil {
		return nil, fmt.Errorf("saving key parameters: %w", err)
	}

	return &domain.KeyMetadata{
		ID:        entry.ID,
		Alias:     entry.Alias,
		Status:    entry.Status,
		CreatedAt: entry.CreatedAt,
	}, nil
}

// GetKeyCharacteristics は指定されたエイリアスの鍵の全パラメータを取得する。
// 無効化された鍵のメタデータも読み出せる。
func (s *KeyService) GetKeyCharacteristics(ctx context.Context, alias string) ([]domain.KeyParameter, error) {
	entry, err := s.keys.FindByAlias(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("finding key entry: %w", err)
	}
	if entry == nil {
		return nil, domain.ErrKeyNotFound
	}

	params, err := s.params.FindAllByKeyID(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("finding key parameters: %w", err)
	}
	return params, nil
}

// AuthorizeKey は指定された鍵にホスト保証のパラメータを追加し、承認レコードを
// 返す。タグが未知の場合はErrUnknownTag、値の型が合わない場合は
// ErrTypeMismatchを返す。
func (s *KeyService) AuthorizeKey(ctx context.Context, alias string, tag hsm.Tag, prim domain.Primitive) (*domain.Authorization, error) {
	entry, err := s.keys.FindByAlias(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("finding key entry: %w", err)
	}
	if entry == nil {
		return nil, domain.ErrKeyNotFound
	}
	if entry.Status == domain.KeyStatusDisabled {
		return nil, domain.ErrKeyDisabled
	}

	value, err := domain.NewFromPrimitive(tag, prim)
	if err != nil {
		return nil, err
	}

	param := domain.NewKeyParameter(value, hsm.SecurityLevelKeystore)
	if err := s.params.SaveAll(ctx, entry.ID, []domain.KeyParameter{param}); err != nil {
		return nil, fmt.Errorf("saving key parameter: %w", err)
	}

	auth := param.ToAuthorization()
	return &auth, nil
}

// ListAuthorizations は指定された鍵の全パラメータを承認レコードとして返す。
// 無効化された鍵は承認を発行しない。
func (s *KeyService) ListAuthorizations(ctx context.Context, alias string) ([]domain.Authorization, error) {
	entry, err := s.keys.FindByAlias(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("finding key entry: %w", err)
	}
	if entry == nil {
		return nil, domain.ErrKeyNotFound
	}
	if entry.Status == domain.KeyStatusDisabled {
		return nil, domain.ErrKeyDisabled
	}

	params, err := s.params.FindAllByKeyID(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("finding key parameters: %w", err)
	}

	auths := make([]domain.Authorization, len(params))
	for i, p := range params {
		auths[i] = p.ToAuthorization()
	}
	return auths, nil
}

// ReleaseKeyBlob は指定されたエイリアスの鍵素材をアンラップして返す。
func (s *KeyService) ReleaseKeyBlob(ctx context.Context, alias string) (*domain.ReleasedKey, error) {
	entry, err := s.keys.FindByAlias(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("finding key entry: %w", err)
	}
	if entry == nil {
		return nil, domain.ErrKeyNotFound
	}
	if entry.Status == domain.KeyStatusDisabled {
		return nil, domain.ErrKeyDisabled
	}

	// KMSでアンラップ
	plainBlob, err := s.kmsClient.Decrypt(ctx, entry.WrappedBlob)
	if err != nil {
		return nil, fmt.Errorf("decrypting key blob: %w", err)
	}

	return &domain.ReleasedKey{
		Alias:   entry.Alias,
		KeyBlob: plainBlob,
	}, nil
}

// ListKeys は全鍵のメタデータを取得する。
func (s *KeyService) ListKeys(ctx context.Context) ([]*domain.KeyMetadata, error) {
	entries, err := s.keys.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding key entries: %w", err)
	}

	metadata := make([]*domain.KeyMetadata, len(entries))
	for i, e := range entries {
		metadata[i] = &domain.KeyMetadata{
			ID:        e.ID,
			Alias:     e.Alias,
			Status:    e.Status,
			CreatedAt: e.CreatedAt,
		}
	}
	return metadata, nil
}

// DisableKey は指定されたエイリアスの鍵を無効化する。パラメータ行は監査の
// ため残す。
func (s *KeyService) DisableKey(ctx context.Context, alias string) error {
	entry, err := s.keys.FindByAlias(ctx, alias)
	if err != nil {
		return fmt.Errorf("finding key entry: %w", err)
	}
	if entry == nil {
		return domain.ErrKeyNotFound
	}
	if entry.Status == domain.KeyStatusDisabled {
		return domain.ErrKeyAlreadyDisabled
	}

	if err := s.keys.UpdateStatus(ctx, entry.ID, domain.KeyStatusDisabled); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	return nil
}
