package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"key-custody-service/internal/domain"
	"key-custody-service/internal/hsm"
)

// mockKeyEntryRepository はテスト用のモックリポジトリ。
type mockKeyEntryRepository struct {
	existsResult      bool
	existsErr         error
	createErr         error
	findByAliasResult *domain.KeyEntry
	findByAliasErr    error
	findAllResult     []*domain.KeyEntry
	findAllErr        error
	updateStatusErr   error
	createdEntries    []*domain.KeyEntry
	updatedID         string
	updatedStatus     domain.KeyStatus
}

func (m *mockKeyEntryRepository) ExistsByAlias(ctx context.Context, alias string) (bool, error) {
	return m.existsResult, m.existsErr
}

func (m *mockKeyEntryRepository) Create(ctx context.Context, entry *domain.KeyEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = "generated-id"
	entry.CreatedAt = time.Now()
	m.createdEntries = append(m.createdEntries, entry)
	return nil
}

func (m *mockKeyEntryRepository) FindByAlias(ctx context.Context, alias string) (*domain.KeyEntry, error) {
	return m.findByAliasResult, m.findByAliasErr
}

func (m *mockKeyEntryRepository) FindAll(ctx context.Context) ([]*domain.KeyEntry, error) {
	return m.findAllResult, m.findAllErr
}

func (m *mockKeyEntryRepository) UpdateStatus(ctx context.Context, id string, status domain.KeyStatus) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	m.updatedID = id
	m.updatedStatus = status
	return nil
}

// mockKeyParameterRepository はテスト用のモックパラメータリポジトリ。
type mockKeyParameterRepository struct {
	saveAllErr    error
	findAllResult []domain.KeyParameter
	findAllErr    error
	deleteErr     error
	saved         map[string][]domain.KeyParameter
}

func (m *mockKeyParameterRepository) SaveAll(ctx context.Context, keyID string, params []domain.KeyParameter) error {
	if m.saveAllErr != nil {
		return m.saveAllErr
	}
	if m.saved == nil {
		m.saved = make(map[string][]domain.KeyParameter)
	}
	m.saved[keyID] = append(m.saved[keyID], params...)
	return nil
}

func (m *mockKeyParameterRepository) FindAllByKeyID(ctx context.Context, keyID string) ([]domain.KeyParameter, error) {
	return m.findAllResult, m.findAllErr
}

func (m *mockKeyParameterRepository) DeleteByKeyID(ctx context.Context, keyID string) error {
	return m.deleteErr
}

// mockSecureModule はテスト用のモックセキュアモジュール。呼び出し元の
// パラメータにORIGINを加えたSOFTWAREブロックを返す。
type mockSecureModule struct {
	generateErr error
	gotParams   []hsm.KeyParameter
}

func (m *mockSecureModule) GenerateKey(ctx context.Context, params []hsm.KeyParameter) (*hsm.GeneratedKey, error) {
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	m.gotParams = params

	characteristics := append([]hsm.KeyParameter{}, params...)
	characteristics = append(characteristics, hsm.KeyParameter{Tag: hsm.TagOrigin, Value: hsm.KeyOriginGenerated})
	return &hsm.GeneratedKey{
		KeyBlob: []byte("raw-key-material"),
		Characteristics: []hsm.KeyCharacteristics{
			{SecurityLevel: hsm.SecurityLevelSoftware, Parameters: characteristics},
		},
	}, nil
}

// mockKMSClient はテスト用のモックKMSクライアント。
type mockKMSClient struct {
	encryptErr    error
	decryptResult []byte
	decryptErr    error
}

func (m *mockKMSClient) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if m.encryptErr != nil {
		return nil, m.encryptErr
	}
	return append([]byte("encrypted:"), plaintext...), nil
}

func (m *mockKMSClient) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if m.decryptErr != nil {
		return nil, m.decryptErr
	}
	if m.decryptResult != nil {
		return m.decryptResult, nil
	}
	return []byte("decrypted-key"), nil
}

func TestKeyService_CreateKey_Success(t *testing.T) {
	keys := &mockKeyEntryRepository{existsResult: false}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	wireParams := []hsm.KeyParameter{
		{Tag: hsm.TagAlgorithm, Value: hsm.AlgorithmAES},
		{Tag: hsm.TagKeySize, Value: hsm.Integer(256)},
	}

	metadata, err := svc.CreateKey(context.Background(), "payments-master", wireParams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if metadata.Alias != "payments-master" {
		t.Errorf("want alias payments-master, got %s", metadata.Alias)
	}
	if metadata.Status != domain.KeyStatusActive {
		t.Errorf("want status active, got %s", metadata.Status)
	}
	if len(keys.createdEntries) != 1 {
		t.Fatalf("want 1 created entry, got %d", len(keys.createdEntries))
	}

	// 鍵素材がラップされて保存されることを確認
	if string(keys.createdEntries[0].WrappedBlob) != "encrypted:raw-key-material" {
		t.Errorf("want wrapped blob, got %s", string(keys.createdEntries[0].WrappedBlob))
	}

	// モジュールの特性にホスト保証の生成日時が加わって保存されることを確認
	stored := params.saved["generated-id"]
	if len(stored) != 4 {
		t.Fatalf("want 4 stored parameters, got %d", len(stored))
	}
	if !stored[0].KeyParameterValue().Equal(domain.Algorithm(hsm.AlgorithmAES)) {
		t.Error("want ALGORITHM=AES as first stored parameter")
	}
	if stored[0].SecurityLevel() != hsm.SecurityLevelSoftware {
		t.Errorf("want security level SOFTWARE, got %s", stored[0].SecurityLevel())
	}
	last := stored[len(stored)-1]
	if last.Tag() != hsm.TagCreationDateTime {
		t.Errorf("want last parameter CREATION_DATETIME, got %s", last.Tag())
	}
	if last.SecurityLevel() != hsm.SecurityLevelKeystore {
		t.Errorf("want security level KEYSTORE, got %s", last.SecurityLevel())
	}
}

func TestKeyService_CreateKey_AlreadyExists(t *testing.T) {
	keys := &mockKeyEntryRepository{existsResult: true}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.CreateKey(context.Background(), "payments-master", nil)
	if !errors.Is(err, domain.ErrKeyAlreadyExists) {
		t.Errorf("want ErrKeyAlreadyExists, got %v", err)
	}
	if module.gotParams != nil {
		t.Error("expected module not to be called")
	}
}

func TestKeyService_CreateKey_ModuleRejectsParameter(t *testing.T) {
	keys := &mockKeyEntryRepository{existsResult: false}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{
		generateErr: fmt.Errorf("tag KEY_SIZE: %w", domain.ErrInvalidParameter),
	}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.CreateKey(context.Background(), "payments-master", nil)
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("want ErrInvalidParameter, got %v", err)
	}
	if len(keys.createdEntries) != 0 {
		t.Errorf("want no created entries, got %d", len(keys.createdEntries))
	}
}

func TestKeyService_GetKeyCharacteristics_Success(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusActive,
		},
	}
	params := &mockKeyParameterRepository{
		findAllResult: []domain.KeyParameter{
			domain.NewKeyParameter(domain.Algorithm(hsm.AlgorithmAES), hsm.SecurityLevelSoftware),
			domain.NewKeyParameter(domain.KeySize(256), hsm.SecurityLevelSoftware),
			domain.NewKeyParameter(domain.CreationDateTime(1700000003000), hsm.SecurityLevelKeystore),
		},
	}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	got, err := svc.GetKeyCharacteristics(context.Background(), "payments-master")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("want 3 parameters, got %d", len(got))
	}
}

func TestKeyService_GetKeyCharacteristics_NotFound(t *testing.T) {
	keys := &mockKeyEntryRepository{findByAliasResult: nil}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.GetKeyCharacteristics(context.Background(), "payments-master")
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("want ErrKeyNotFound, got %v", err)
	}
}

// TestKeyService_GetKeyCharacteristics_Disabled は無効化済みの鍵でも特性を
// 読み出せることを検証する。
func TestKeyService_GetKeyCharacteristics_Disabled(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusDisabled,
		},
	}
	params := &mockKeyParameterRepository{
		findAllResult: []domain.KeyParameter{
			domain.NewKeyParameter(domain.KeySize(256), hsm.SecurityLevelSoftware),
		},
	}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	got, err := svc.GetKeyCharacteristics(context.Background(), "payments-master")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("want 1 parameter, got %d", len(got))
	}
}

func TestKeyService_AuthorizeKey_Success(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusActive,
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	auth, err := svc.AuthorizeKey(context.Background(), "payments-master", hsm.TagUserSecureID, domain.PrimitiveInt64(1234567890123))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if auth.SecurityLevel != hsm.SecurityLevelKeystore {
		t.Errorf("want security level KEYSTORE, got %s", auth.SecurityLevel)
	}
	if auth.KeyParameter.Tag != hsm.TagUserSecureID {
		t.Errorf("want tag USER_SECURE_ID, got %s", auth.KeyParameter.Tag)
	}
	sid, ok := auth.KeyParameter.Value.(hsm.LongInteger)
	if !ok {
		t.Fatalf("want LongInteger payload, got %T", auth.KeyParameter.Value)
	}
	if sid != 1234567890123 {
		t.Errorf("want 1234567890123, got %d", sid)
	}
	if len(params.saved["key-1"]) != 1 {
		t.Errorf("want 1 saved parameter, got %d", len(params.saved["key-1"]))
	}
}

func TestKeyService_AuthorizeKey_UnknownTag(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusActive,
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.AuthorizeKey(context.Background(), "payments-master", hsm.Tag(3<<28|9999), domain.PrimitiveInt32(1))
	if !errors.Is(err, domain.ErrUnknownTag) {
		t.Errorf("want ErrUnknownTag, got %v", err)
	}
	if len(params.saved) != 0 {
		t.Error("expected nothing to be saved")
	}
}

func TestKeyService_AuthorizeKey_TypeMismatch(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusActive,
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.AuthorizeKey(context.Background(), "payments-master", hsm.TagKeySize, domain.PrimitiveInt64(256))
	if !errors.Is(err, domain.ErrTypeMismatch) {
		t.Errorf("want ErrTypeMismatch, got %v", err)
	}
}

func TestKeyService_AuthorizeKey_Disabled(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusDisabled,
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.AuthorizeKey(context.Background(), "payments-master", hsm.TagUserSecureID, domain.PrimitiveInt64(1))
	if !errors.Is(err, domain.ErrKeyDisabled) {
		t.Errorf("want ErrKeyDisabled, got %v", err)
	}
}

func TestKeyService_AuthorizeKey_NotFound(t *testing.T) {
	keys := &mockKeyEntryRepository{findByAliasResult: nil}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.AuthorizeKey(context.Background(), "payments-master", hsm.TagUserSecureID, domain.PrimitiveInt64(1))
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("want ErrKeyNotFound, got %v", err)
	}
}

func TestKeyService_ListAuthorizations_Success(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusActive,
		},
	}
	params := &mockKeyParameterRepository{
		findAllResult: []domain.KeyParameter{
			domain.NewKeyParameter(domain.KeySize(256), hsm.SecurityLevelSoftware),
			domain.NewKeyParameter(domain.NoAuthRequired(), hsm.SecurityLevelSoftware),
			domain.NewKeyParameter(domain.UserSecureID(1234567890123), hsm.SecurityLevelKeystore),
		},
	}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	auths, err := svc.ListAuthorizations(context.Background(), "payments-master")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(auths) != 3 {
		t.Fatalf("want 3 authorizations, got %d", len(auths))
	}
	if auths[0].SecurityLevel != hsm.SecurityLevelSoftware {
		t.Errorf("want security level SOFTWARE, got %s", auths[0].SecurityLevel)
	}
	if auths[0].KeyParameter.Tag != hsm.TagKeySize {
		t.Errorf("want tag KEY_SIZE, got %s", auths[0].KeyParameter.Tag)
	}

	// フラグはワイヤ上でtrueとして現れることを確認
	flag, ok := auths[1].KeyParameter.Value.(hsm.BoolValue)
	if !ok {
		t.Fatalf("want BoolValue payload, got %T", auths[1].KeyParameter.Value)
	}
	if !bool(flag) {
		t.Error("want flag value true, got false")
	}

	if auths[2].SecurityLevel != hsm.SecurityLevelKeystore {
		t.Errorf("want security level KEYSTORE, got %s", auths[2].SecurityLevel)
	}
}

func TestKeyService_ListAuthorizations_Disabled(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusDisabled,
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.ListAuthorizations(context.Background(), "payments-master")
	if !errors.Is(err, domain.ErrKeyDisabled) {
		t.Errorf("want ErrKeyDisabled, got %v", err)
	}
}

func TestKeyService_ListAuthorizations_NotFound(t *testing.T) {
	keys := &mockKeyEntryRepository{findByAliasResult: nil}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.ListAuthorizations(context.Background(), "payments-master")
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("want ErrKeyNotFound, got %v", err)
	}
}

func TestKeyService_ReleaseKeyBlob_Success(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:          "key-1",
			Alias:       "payments-master",
			Status:      domain.KeyStatusActive,
			WrappedBlob: []byte("wrapped"),
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{decryptResult: []byte("plain-key-material")}
	svc := NewKeyService(keys, params, module, kms)

	released, err := svc.ReleaseKeyBlob(context.Background(), "payments-master")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if released.Alias != "payments-master" {
		t.Errorf("want alias payments-master, got %s", released.Alias)
	}
	if string(released.KeyBlob) != "plain-key-material" {
		t.Errorf("want plain-key-material, got %s", string(released.KeyBlob))
	}
}

func TestKeyService_ReleaseKeyBlob_Disabled(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusDisabled,
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.ReleaseKeyBlob(context.Background(), "payments-master")
	if !errors.Is(err, domain.ErrKeyDisabled) {
		t.Errorf("want ErrKeyDisabled, got %v", err)
	}
}

func TestKeyService_ReleaseKeyBlob_NotFound(t *testing.T) {
	keys := &mockKeyEntryRepository{findByAliasResult: nil}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	_, err := svc.ReleaseKeyBlob(context.Background(), "payments-master")
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("want ErrKeyNotFound, got %v", err)
	}
}

func TestKeyService_ListKeys_Success(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findAllResult: []*domain.KeyEntry{
			{ID: "key-1", Alias: "alpha", Status: domain.KeyStatusActive},
			{ID: "key-2", Alias: "beta", Status: domain.KeyStatusDisabled},
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	got, err := svc.ListKeys(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("want 2 keys, got %d", len(got))
	}
	if got[0].Alias != "alpha" {
		t.Errorf("want alias alpha, got %s", got[0].Alias)
	}
	if got[1].Status != domain.KeyStatusDisabled {
		t.Errorf("want status disabled, got %s", got[1].Status)
	}
}

func TestKeyService_DisableKey_Success(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusActive,
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	if err := svc.DisableKey(context.Background(), "payments-master"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if keys.updatedID != "key-1" {
		t.Errorf("want updated id key-1, got %s", keys.updatedID)
	}
	if keys.updatedStatus != domain.KeyStatusDisabled {
		t.Errorf("want status disabled, got %s", keys.updatedStatus)
	}
}

func TestKeyService_DisableKey_AlreadyDisabled(t *testing.T) {
	keys := &mockKeyEntryRepository{
		findByAliasResult: &domain.KeyEntry{
			ID:     "key-1",
			Alias:  "payments-master",
			Status: domain.KeyStatusDisabled,
		},
	}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	err := svc.DisableKey(context.Background(), "payments-master")
	if !errors.Is(err, domain.ErrKeyAlreadyDisabled) {
		t.Errorf("want ErrKeyAlreadyDisabled, got %v", err)
	}
}

func TestKeyService_DisableKey_NotFound(t *testing.T) {
	keys := &mockKeyEntryRepository{findByAliasResult: nil}
	params := &mockKeyParameterRepository{}
	module := &mockSecureModule{}
	kms := &mockKMSClient{}
	svc := NewKeyService(keys, params, module, kms)

	err := svc.DisableKey(context.Background(), "payments-master")
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("want ErrKeyNotFound, got %v", err)
	}
}
