// Package handler はHTTPハンドラを提供する。
package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"

	"key-custody-service/internal/domain"
	"key-custody-service/internal/hsm"
	"key-custody-service/internal/middleware"
	"key-custody-service/internal/usecase"
	"key-custody-service/pkg/httputil"
)

var aliasRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// KeyHandler はHTTPハンドラを提供する。
type KeyHandler struct {
	service *usecase.KeyService
}

// NewKeyHandler は新しいKeyHandlerを生成する。
func NewKeyHandler(service *usecase.KeyService) *KeyHandler {
	return &KeyHandler{service: service}
}

func validateAlias(alias string) error {
	if alias == "" {
		return domain.ErrInvalidAlias
	}
	if len(alias) > 128 {
		return domain.ErrInvalidAlias
	}
	if !aliasRegex.MatchString(alias) {
		return domain.ErrInvalidAlias
	}
	return nil
}

// ParameterPayload はリクエスト中の鍵パラメータの形式。フラグ系のタグは
// valueを省略するか、trueのみを指定できる。
type ParameterPayload struct {
	Tag   string          `json:"tag"`
	Value json.RawMessage `json:"value,omitempty"`
}

// CreateKeyRequest は鍵生成リクエストの形式。
type CreateKeyRequest struct {
	Alias      string             `json:"alias"`
	Parameters []ParameterPayload `json:"parameters"`
}

// AuthorizeKeyRequest は承認追加リクエストの形式。
type AuthorizeKeyRequest struct {
	Tag   string          `json:"tag"`
	Value json.RawMessage `json:"value,omitempty"`
}

// KeyMetadataResponse は鍵メタデータのレスポンス形式。
type KeyMetadataResponse struct {
	Alias     string `json:"alias"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// KeyListResponse は鍵一覧のレスポンス形式。
type KeyListResponse struct {
	Keys []KeyMetadataResponse `json:"keys"`
}

// KeyParameterResponse はワイヤ表現の鍵パラメータのレスポンス形式。
type KeyParameterResponse struct {
	Tag   string      `json:"tag"`
	Value interface{} `json:"value,omitempty"`
}

// CharacteristicsResponse はセキュリティレベルごとの特性ブロック。
type CharacteristicsResponse struct {
	SecurityLevel string                 `json:"security_level"`
	Parameters    []KeyParameterResponse `json:"parameters"`
}

// KeyCharacteristicsResponse は鍵特性のレスポンス形式。
type KeyCharacteristicsResponse struct {
	Alias           string                    `json:"alias"`
	Characteristics []CharacteristicsResponse `json:"characteristics"`
}

// AuthorizationResponse は承認レコードのレスポンス形式。
type AuthorizationResponse struct {
	SecurityLevel string               `json:"security_level"`
	KeyParameter  KeyParameterResponse `json:"key_parameter"`
}

// AuthorizationListResponse は承認レコード一覧のレスポンス形式。
type AuthorizationListResponse struct {
	Alias          string                  `json:"alias"`
	Authorizations []AuthorizationResponse `json:"authorizations"`
}

// ReleasedKeyResponse はアンラップ済み鍵素材のレスポンス形式。
type ReleasedKeyResponse struct {
	Alias   string `json:"alias"`
	KeyBlob string `json:"key_blob"`
}

// decodeWireParameter はリクエストのパラメータをワイヤ表現へ復号する。
// ペイロードの形はタグのペイロードクラスに従う。
func decodeWireParameter(p ParameterPayload) (hsm.KeyParameter, error) {
	tag, ok := hsm.ParseTag(p.Tag)
	if !ok {
		return hsm.KeyParameter{}, fmt.Errorf("tag %s: %w", p.Tag, domain.ErrUnknownTag)
	}

	kind, _ := domain.PrimitiveKindOf(tag)
	switch kind {
	case domain.PrimitiveKindNone:
		// フラグは値なし、または明示的なtrueのみ受け付ける
		if len(p.Value) == 0 || string(p.Value) == "true" {
			return hsm.KeyParameter{Tag: tag, Value: hsm.BoolValue(true)}, nil
		}
		return hsm.KeyParameter{}, fmt.Errorf("tag %s: %w", p.Tag, domain.ErrInvalidParameter)
	case domain.PrimitiveKindInt32:
		var n int32
		if err := json.Unmarshal(p.Value, &n); err != nil {
			return hsm.KeyParameter{}, fmt.Errorf("tag %s: %w", p.Tag, domain.ErrInvalidParameter)
		}
		value, err := domain.NewFromPrimitive(tag, domain.PrimitiveInt32(n))
		if err != nil {
			return hsm.KeyParameter{}, err
		}
		return value.ToWire(), nil
	case domain.PrimitiveKindInt64:
		var n int64
		if err := json.Unmarshal(p.Value, &n); err != nil {
			return hsm.KeyParameter{}, fmt.Errorf("tag %s: %w", p.Tag, domain.ErrInvalidParameter)
		}
		value, err := domain.NewFromPrimitive(tag, domain.PrimitiveInt64(n))
		if err != nil {
			return hsm.KeyParameter{}, err
		}
		return value.ToWire(), nil
	case domain.PrimitiveKindBytes:
		var s string
		if err := json.Unmarshal(p.Value, &s); err != nil {
			return hsm.KeyParameter{}, fmt.Errorf("tag %s: %w", p.Tag, domain.ErrInvalidParameter)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return hsm.KeyParameter{}, fmt.Errorf("tag %s: %w", p.Tag, domain.ErrInvalidParameter)
		}
		value, err := domain.NewFromPrimitive(tag, domain.PrimitiveBytes(b))
		if err != nil {
			return hsm.KeyParameter{}, err
		}
		return value.ToWire(), nil
	}
	return hsm.KeyParameter{}, fmt.Errorf("tag %s: %w", p.Tag, domain.ErrInvalidParameter)
}

// decodePrimitive はリクエストの値をタグのペイロードクラスに従って基本型へ
// 復号する。基本型を持たないタグはnilを返し、型不一致の検出はユースケース
// 側に委ねる。
func decodePrimitive(tag hsm.Tag, raw json.RawMessage) (domain.Primitive, error) {
	kind, ok := domain.PrimitiveKindOf(tag)
	if !ok {
		return nil, fmt.Errorf("tag %s: %w", tag, domain.ErrUnknownTag)
	}
	switch kind {
	case domain.PrimitiveKindInt32:
		var n int32
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag, domain.ErrInvalidParameter)
		}
		return domain.PrimitiveInt32(n), nil
	case domain.PrimitiveKindInt64:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag, domain.ErrInvalidParameter)
		}
		return domain.PrimitiveInt64(n), nil
	case domain.PrimitiveKindBytes:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag, domain.ErrInvalidParameter)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag, domain.ErrInvalidParameter)
		}
		return domain.PrimitiveBytes(b), nil
	}
	return nil, nil
}

// renderWireValue はワイヤ表現の値をJSON向けに変換する。ブロブはBase64、
// 列挙型は数値で表す。Invalidは値を省略する。
func renderWireValue(v hsm.KeyParameterValue) interface{} {
	switch x := v.(type) {
	case hsm.BoolValue:
		return bool(x)
	case hsm.Integer:
		return int32(x)
	case hsm.LongInteger:
		return int64(x)
	case hsm.DateTime:
		return int64(x)
	case hsm.Blob:
		return base64.StdEncoding.EncodeToString(x)
	case hsm.Algorithm:
		return int32(x)
	case hsm.BlockMode:
		return int32(x)
	case hsm.PaddingMode:
		return int32(x)
	case hsm.Digest:
		return int32(x)
	case hsm.ECCurve:
		return int32(x)
	case hsm.KeyOrigin:
		return int32(x)
	case hsm.KeyPurpose:
		return int32(x)
	case hsm.HardwareAuthenticatorType:
		return int32(x)
	default:
		return nil
	}
}

func renderWireParameter(p hsm.KeyParameter) KeyParameterResponse {
	return KeyParameterResponse{
		Tag:   p.Tag.String(),
		Value: renderWireValue(p.Value),
	}
}

// characteristicsBlocks はパラメータをセキュリティレベルごとにまとめる。
func characteristicsBlocks(params []domain.KeyParameter) []CharacteristicsResponse {
	levels := []hsm.SecurityLevel{
		hsm.SecurityLevelSoftware,
		hsm.SecurityLevelTrustedEnvironment,
		hsm.SecurityLevelStrongbox,
		hsm.SecurityLevelKeystore,
	}

	blocks := make([]CharacteristicsResponse, 0, len(levels))
	for _, level := range levels {
		var rendered []KeyParameterResponse
		for _, p := range params {
			if p.SecurityLevel() != level {
				continue
			}
			rendered = append(rendered, renderWireParameter(p.KeyParameterValue().ToWire()))
		}
		if len(rendered) > 0 {
			blocks = append(blocks, CharacteristicsResponse{
				SecurityLevel: level.String(),
				Parameters:    rendered,
			})
		}
	}
	return blocks
}

// CreateKey は新しい鍵を生成する。
func (h *KeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validateAlias(req.Alias); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_ALIAS", "invalid alias format")
		return
	}

	wireParams := make([]hsm.KeyParameter, 0, len(req.Parameters))
	for _, p := range req.Parameters {
		param, err := decodeWireParameter(p)
		if err != nil {
			writeParameterError(w, err)
			return
		}
		wireParams = append(wireParams, param)
	}

	metadata, err := h.service.CreateKey(r.Context(), req.Alias, wireParams)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_KEY", req.Alias, "FAILED")
		if errors.Is(err, domain.ErrKeyAlreadyExists) {
			httputil.Error(w, http.StatusConflict, "KEY_ALREADY_EXISTS", "key already exists for this alias")
			return
		}
		if errors.Is(err, domain.ErrInvalidParameter) {
			httputil.Error(w, http.StatusBadRequest, "INVALID_PARAMETER", "invalid key parameter")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "CREATE_KEY", req.Alias, "SUCCESS")
	httputil.JSON(w, http.StatusCreated, KeyMetadataResponse{
		Alias:     metadata.Alias,
		Status:    string(metadata.Status),
		CreatedAt: metadata.CreatedAt.Format(time.RFC3339),
	})
}

// GetKeyCharacteristics は鍵の特性を取得する。
func (h *KeyHandler) GetKeyCharacteristics(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	if err := validateAlias(alias); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_ALIAS", "invalid alias format")
		return
	}

	params, err := h.service.GetKeyCharacteristics(r.Context(), alias)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "GET_KEY_CHARACTERISTICS", alias, "FAILED")
		if errors.Is(err, domain.ErrKeyNotFound) {
			httputil.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "key not found for this alias")
			return
		}
		if errors.Is(err, domain.ErrValueCorrupted) {
			httputil.Error(w, http.StatusInternalServerError, "VALUE_CORRUPTED", "stored key parameter is corrupted")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "GET_KEY_CHARACTERISTICS", alias, "SUCCESS")
	httputil.JSON(w, http.StatusOK, KeyCharacteristicsResponse{
		Alias:           alias,
		Characteristics: characteristicsBlocks(params),
	})
}

// AuthorizeKey は鍵にホスト保証のパラメータを追加する。
func (h *KeyHandler) AuthorizeKey(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	if err := validateAlias(alias); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_ALIAS", "invalid alias format")
		return
	}

	var req AuthorizeKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	tag, ok := hsm.ParseTag(req.Tag)
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "UNKNOWN_TAG", "unknown tag name")
		return
	}
	prim, err := decodePrimitive(tag, req.Value)
	if err != nil {
		writeParameterError(w, err)
		return
	}

	auth, err := h.service.AuthorizeKey(r.Context(), alias, tag, prim)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "AUTHORIZE_KEY", alias, "FAILED")
		if errors.Is(err, domain.ErrKeyNotFound) {
			httputil.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "key not found for this alias")
			return
		}
		if errors.Is(err, domain.ErrKeyDisabled) {
			httputil.Error(w, http.StatusGone, "KEY_DISABLED", "key has been disabled")
			return
		}
		if errors.Is(err, domain.ErrUnknownTag) {
			httputil.Error(w, http.StatusBadRequest, "UNKNOWN_TAG", "unknown tag name")
			return
		}
		if errors.Is(err, domain.ErrTypeMismatch) {
			httputil.Error(w, http.StatusBadRequest, "TYPE_MISMATCH", "value type does not match the tag")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "AUTHORIZE_KEY", alias, "SUCCESS")
	httputil.JSON(w, http.StatusCreated, AuthorizationResponse{
		SecurityLevel: auth.SecurityLevel.String(),
		KeyParameter:  renderWireParameter(auth.KeyParameter),
	})
}

// ListAuthorizations は鍵の全パラメータを承認レコードとして取得する。
func (h *KeyHandler) ListAuthorizations(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	if err := validateAlias(alias); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_ALIAS", "invalid alias format")
		return
	}

	auths, err := h.service.ListAuthorizations(r.Context(), alias)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "LIST_AUTHORIZATIONS", alias, "FAILED")
		if errors.Is(err, domain.ErrKeyNotFound) {
			httputil.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "key not found for this alias")
			return
		}
		if errors.Is(err, domain.ErrKeyDisabled) {
			httputil.Error(w, http.StatusGone, "KEY_DISABLED", "key has been disabled")
			return
		}
		if errors.Is(err, domain.ErrValueCorrupted) {
			httputil.Error(w, http.StatusInternalServerError, "VALUE_CORRUPTED", "stored key parameter is corrupted")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "LIST_AUTHORIZATIONS", alias, "SUCCESS")
	response := AuthorizationListResponse{
		Alias:          alias,
		Authorizations: make([]AuthorizationResponse, len(auths)),
	}
	for i, a := range auths {
		response.Authorizations[i] = AuthorizationResponse{
			SecurityLevel: a.SecurityLevel.String(),
			KeyParameter:  renderWireParameter(a.KeyParameter),
		}
	}
	httputil.JSON(w, http.StatusOK, response)
}

// ReleaseKeyBlob は鍵素材をアンラップして返す。
func (h *KeyHandler) ReleaseKeyBlob(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	if err := validateAlias(alias); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_ALIAS", "invalid alias format")
		return
	}

	released, err := h.service.ReleaseKeyBlob(r.Context(), alias)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "RELEASE_KEY_BLOB", alias, "FAILED")
		if errors.Is(err, domain.ErrKeyNotFound) {
			httputil.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "key not found for this alias")
			return
		}
		if errors.Is(err, domain.ErrKeyDisabled) {
			httputil.Error(w, http.StatusGone, "KEY_DISABLED", "key has been disabled")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "RELEASE_KEY_BLOB", alias, "SUCCESS")
	httputil.JSON(w, http.StatusOK, ReleasedKeyResponse{
		Alias:   released.Alias,
		KeyBlob: base64.StdEncoding.EncodeToString(released.KeyBlob),
	})
}

// ListKeys は鍵一覧を取得する。
func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.ListKeys(r.Context())
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "LIST_KEYS", "", "FAILED")
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "LIST_KEYS", "", "SUCCESS")
	response := KeyListResponse{
		Keys: make([]KeyMetadataResponse, len(keys)),
	}
	for i, k := range keys {
		response.Keys[i] = KeyMetadataResponse{
			Alias:     k.Alias,
			Status:    string(k.Status),
			CreatedAt: k.CreatedAt.Format(time.RFC3339),
		}
	}
	httputil.JSON(w, http.StatusOK, response)
}

// DisableKey は鍵を無効化する。
func (h *KeyHandler) DisableKey(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	if err := validateAlias(alias); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_ALIAS", "invalid alias format")
		return
	}

	err := h.service.DisableKey(r.Context(), alias)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "DISABLE_KEY", alias, "FAILED")
		if errors.Is(err, domain.ErrKeyNotFound) {
			httputil.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "key not found for this alias")
			return
		}
		if errors.Is(err, domain.ErrKeyAlreadyDisabled) {
			httputil.Error(w, http.StatusConflict, "KEY_ALREADY_DISABLED", "key is already disabled")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	middleware.WriteAuditLog(r.Context(), "DISABLE_KEY", alias, "SUCCESS")
	w.WriteHeader(http.StatusAccepted)
}

// writeParameterError はパラメータ復号エラーをレスポンスへ変換する。
func writeParameterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownTag):
		httputil.Error(w, http.StatusBadRequest, "UNKNOWN_TAG", "unknown tag name")
	case errors.Is(err, domain.ErrTypeMismatch):
		httputil.Error(w, http.StatusBadRequest, "TYPE_MISMATCH", "value type does not match the tag")
	default:
		httputil.Error(w, http.StatusBadRequest, "INVALID_PARAMETER", "invalid key parameter")
	}
}
