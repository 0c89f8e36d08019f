package domain

import (
	"bytes"

	"key-custody-service/internal/hsm"
)

// payloadClass はタグが運ぶペイロードの型クラス。ワイヤ上のフィールド選択と
// ストレージセルの復号型の両方を決める。
type payloadClass int

const (
	classInvalid payloadClass = iota
	classBool
	classInteger
	classLongInteger
	classDateTime
	classBlob
	classAlgorithm
	classBlockMode
	classPaddingMode
	classDigest
	classECCurve
	classOrigin
	classPurpose
	classAuthType
)

// keyParameterClasses は全タグとペイロードクラスの正準対応表。変種の集合と
// 各変換関数はすべてこの表と一致していなければならない。表にないタグは
// 未知として扱う。
var keyParameterClasses = map[hsm.Tag]payloadClass{
	hsm.TagInvalid:                     classInvalid,
	hsm.TagPurpose:                     classPurpose,
	hsm.TagAlgorithm:                   classAlgorithm,
	hsm.TagKeySize:                     classInteger,
	hsm.TagBlockMode:                   classBlockMode,
	hsm.TagDigest:                      classDigest,
	hsm.TagRSAOAEPMGFDigest:            classDigest,
	hsm.TagPadding:                     classPaddingMode,
	hsm.TagCallerNonce:                 classBool,
	hsm.TagMinMacLength:                classInteger,
	hsm.TagECCurve:                     classECCurve,
	hsm.TagRSAPublicExponent:           classLongInteger,
	hsm.TagIncludeUniqueID:             classBool,
	hsm.TagBootloaderOnly:              classBool,
	hsm.TagRollbackResistance:          classBool,
	hsm.TagEarlyBootOnly:               classBool,
	hsm.TagActiveDateTime:              classDateTime,
	hsm.TagOriginationExpireDateTime:   classDateTime,
	hsm.TagUsageExpireDateTime:         classDateTime,
	hsm.TagMinSecondsBetweenOps:        classInteger,
	hsm.TagMaxUsesPerBoot:              classInteger,
	hsm.TagUsageCountLimit:             classInteger,
	hsm.TagUserID:                      classInteger,
	hsm.TagUserSecureID:                classLongInteger,
	hsm.TagNoAuthRequired:              classBool,
	hsm.TagUserAuthType:                classAuthType,
	hsm.TagAuthTimeout:                 classInteger,
	hsm.TagAllowWhileOnBody:            classBool,
	hsm.TagTrustedUserPresenceRequired: classBool,
	hsm.TagTrustedConfirmationRequired: classBool,
	hsm.TagUnlockedDeviceRequired:      classBool,
	hsm.TagApplicationID:               classBlob,
	hsm.TagApplicationData:             classBlob,
	hsm.TagCreationDateTime:            classDateTime,
	hsm.TagOrigin:                      classOrigin,
	hsm.TagRootOfTrust:                 classBlob,
	hsm.TagOSVersion:                   classInteger,
	hsm.TagOSPatchlevel:                classInteger,
	hsm.TagUniqueID:                    classBlob,
	hsm.TagAttestationChallenge:        classBlob,
	hsm.TagAttestationApplicationID:    classBlob,
	hsm.TagAttestationIDBrand:          classBlob,
	hsm.TagAttestationIDDevice:         classBlob,
	hsm.TagAttestationIDProduct:        classBlob,
	hsm.TagAttestationIDSerial:         classBlob,
	hsm.TagAttestationIDIMEI:           classBlob,
	hsm.TagAttestationIDSecondIMEI:     classBlob,
	hsm.TagAttestationIDMEID:           classBlob,
	hsm.TagAttestationIDManufacturer:   classBlob,
	hsm.TagAttestationIDModel:          classBlob,
	hsm.TagVendorPatchlevel:            classInteger,
	hsm.TagBootPatchlevel:              classInteger,
	hsm.TagAssociatedData:              classBlob,
	hsm.TagNonce:                       classBlob,
	hsm.TagMacLength:                   classInteger,
	hsm.TagResetSinceIDRotation:        classBool,
	hsm.TagConfirmationToken:           classBlob,
	hsm.TagCertificateSerial:           classBlob,
	hsm.TagCertificateSubject:          classBlob,
	hsm.TagCertificateNotBefore:        classDateTime,
	hsm.TagCertificateNotAfter:         classDateTime,
	hsm.TagMaxBootLevel:                classInteger,
}

// KeyParameterValue は1つの鍵パラメータ値を表すタグ付きユニオン。タグごとに
// 変種が1つ定義され、コンストラクタ関数経由でのみ生成する。ペイロードは
// タグのペイロードクラスに応じて整数スロットかバイト列スロットに入り、
// フラグ系の変種はどちらも使わない。
type KeyParameterValue struct {
	tag  hsm.Tag
	num  int64
	blob []byte
}

// Invalid は不明・不正なパラメータを表す変種。
func Invalid() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagInvalid}
}

// KeyPurpose は鍵の用途。
func KeyPurpose(p hsm.KeyPurpose) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagPurpose, num: int64(p)}
}

// Algorithm は鍵の暗号アルゴリズム。
func Algorithm(a hsm.Algorithm) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAlgorithm, num: int64(a)}
}

// KeySize は鍵長(ビット)。
func KeySize(bits int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagKeySize, num: int64(bits)}
}

// BlockMode は利用を許可するブロックモード。
func BlockMode(m hsm.BlockMode) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagBlockMode, num: int64(m)}
}

// Digest は利用を許可するハッシュアルゴリズム。
func Digest(d hsm.Digest) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagDigest, num: int64(d)}
}

// RSAOAEPMGFDigest はRSA-OAEPのMGF1に使うハッシュアルゴリズム。
func RSAOAEPMGFDigest(d hsm.Digest) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagRSAOAEPMGFDigest, num: int64(d)}
}

// PaddingMode は利用を許可するパディング方式。
func PaddingMode(p hsm.PaddingMode) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagPadding, num: int64(p)}
}

// CallerNonce は呼び出し元によるノンス指定を許可するフラグ。
func CallerNonce() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagCallerNonce}
}

// MinMacLength はMACの最小長(ビット)。
func MinMacLength(bits int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagMinMacLength, num: int64(bits)}
}

// ECCurve は楕円曲線。
func ECCurve(c hsm.ECCurve) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagECCurve, num: int64(c)}
}

// RSAPublicExponent はRSA公開指数。
func RSAPublicExponent(e int64) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagRSAPublicExponent, num: e}
}

// IncludeUniqueID はアテステーションに一意IDを含めるフラグ。
func IncludeUniqueID() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagIncludeUniqueID}
}

// BootloaderOnly はブートローダのみが利用できることを示すフラグ。
func BootloaderOnly() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagBootloaderOnly}
}

// RollbackResistance は鍵素材のロールバック耐性を示すフラグ。
func RollbackResistance() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagRollbackResistance}
}

// EarlyBootOnly は起動初期のみ利用できることを示すフラグ。
func EarlyBootOnly() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagEarlyBootOnly}
}

// ActiveDateTime は鍵が有効になる日時(エポックミリ秒)。
func ActiveDateTime(t int64) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagActiveDateTime, num: t}
}

// OriginationExpireDateTime は署名・暗号化用途の失効日時。
func OriginationExpireDateTime(t int64) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagOriginationExpireDateTime, num: t}
}

// UsageExpireDateTime は検証・復号用途の失効日時。
func UsageExpireDateTime(t int64) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagUsageExpireDateTime, num: t}
}

// MinSecondsBetweenOps は連続利用の最小間隔(秒)。
func MinSecondsBetweenOps(seconds int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagMinSecondsBetweenOps, num: int64(seconds)}
}

// MaxUsesPerBoot は起動ごとの利用回数上限。
func MaxUsesPerBoot(count int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagMaxUsesPerBoot, num: int64(count)}
}

// UsageCountLimit は鍵の生涯利用回数上限。
func UsageCountLimit(count int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagUsageCountLimit, num: int64(count)}
}

// UserID は鍵を所有する利用者のID。
func UserID(id int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagUserID, num: int64(id)}
}

// UserSecureID は利用者認証に紐づくセキュアID。
func UserSecureID(sid int64) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagUserSecureID, num: sid}
}

// NoAuthRequired は利用者認証なしで利用できることを示すフラグ。
func NoAuthRequired() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagNoAuthRequired}
}

// HardwareAuthenticatorType は利用時に要求する認証方式。
func HardwareAuthenticatorType(t hsm.HardwareAuthenticatorType) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagUserAuthType, num: int64(t)}
}

// AuthTimeout は認証の有効時間(秒)。
func AuthTimeout(seconds int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAuthTimeout, num: int64(seconds)}
}

// AllowWhileOnBody は装着中の利用継続を許可するフラグ。
func AllowWhileOnBody() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAllowWhileOnBody}
}

// TrustedUserPresenceRequired は利用時に利用者の実在確認を要求するフラグ。
func TrustedUserPresenceRequired() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagTrustedUserPresenceRequired}
}

// TrustedConfirmationRequired は利用時に確認トークンを要求するフラグ。
func TrustedConfirmationRequired() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagTrustedConfirmationRequired}
}

// UnlockedDeviceRequired はデバイスのロック解除中のみ利用できるフラグ。
func UnlockedDeviceRequired() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagUnlockedDeviceRequired}
}

// ApplicationID は鍵の利用を許可する呼び出し元のID。
func ApplicationID(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagApplicationID, blob: b}
}

// ApplicationData は鍵の利用時に要求する呼び出し元データ。
func ApplicationData(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagApplicationData, blob: b}
}

// CreationDateTime は鍵の生成日時(エポックミリ秒)。
func CreationDateTime(t int64) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagCreationDateTime, num: t}
}

// KeyOrigin は鍵素材の出自。
func KeyOrigin(o hsm.KeyOrigin) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagOrigin, num: int64(o)}
}

// RootOfTrust は検証済みブートの信頼の起点。
func RootOfTrust(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagRootOfTrust, blob: b}
}

// OSVersion は鍵生成時のOSバージョン。
func OSVersion(v int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagOSVersion, num: int64(v)}
}

// OSPatchlevel は鍵生成時のOSパッチレベル。
func OSPatchlevel(v int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagOSPatchlevel, num: int64(v)}
}

// UniqueID はアテステーション用の一意ID。
func UniqueID(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagUniqueID, blob: b}
}

// AttestationChallenge はアテステーションのチャレンジ。
func AttestationChallenge(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationChallenge, blob: b}
}

// AttestationApplicationID はアテステーションを要求した呼び出し元のID。
func AttestationApplicationID(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationApplicationID, blob: b}
}

// AttestationIDBrand はデバイスのブランド名。
func AttestationIDBrand(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationIDBrand, blob: b}
}

// AttestationIDDevice はデバイス名。
func AttestationIDDevice(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationIDDevice, blob: b}
}

// AttestationIDProduct は製品名。
func AttestationIDProduct(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationIDProduct, blob: b}
}

// AttestationIDSerial はデバイスのシリアル番号。
func AttestationIDSerial(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationIDSerial, blob: b}
}

// AttestationIDIMEI はデバイスのIMEI。
func AttestationIDIMEI(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationIDIMEI, blob: b}
}

// AttestationIDSecondIMEI はデバイスの2番目のIMEI。
func AttestationIDSecondIMEI(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationIDSecondIMEI, blob: b}
}

// AttestationIDMEID はデバイスのMEID。
func AttestationIDMEID(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationIDMEID, blob: b}
}

// AttestationIDManufacturer はデバイスの製造者名。
func AttestationIDManufacturer(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationIDManufacturer, blob: b}
}

// AttestationIDModel はデバイスのモデル名。
func AttestationIDModel(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAttestationIDModel, blob: b}
}

// VendorPatchlevel は鍵生成時のベンダーパッチレベル。
func VendorPatchlevel(v int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagVendorPatchlevel, num: int64(v)}
}

// BootPatchlevel は鍵生成時のブートパッチレベル。
func BootPatchlevel(v int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagBootPatchlevel, num: int64(v)}
}

// AssociatedData はAEADの関連データ。
func AssociatedData(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagAssociatedData, blob: b}
}

// Nonce は暗号化操作のノンス。
func Nonce(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagNonce, blob: b}
}

// MacLength はMACまたは認証タグの長さ(ビット)。
func MacLength(bits int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagMacLength, num: int64(bits)}
}

// ResetSinceIDRotation はID更新後にデバイスが初期化されたかを示すフラグ。
func ResetSinceIDRotation() KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagResetSinceIDRotation}
}

// ConfirmationToken は利用者確認のトークン。
func ConfirmationToken(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagConfirmationToken, blob: b}
}

// CertificateSerial は発行する証明書のシリアル番号。
func CertificateSerial(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagCertificateSerial, blob: b}
}

// CertificateSubject は発行する証明書のサブジェクト。
func CertificateSubject(b []byte) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagCertificateSubject, blob: b}
}

// CertificateNotBefore は発行する証明書の有効期間の開始日時。
func CertificateNotBefore(t int64) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagCertificateNotBefore, num: t}
}

// CertificateNotAfter は発行する証明書の有効期間の終了日時。
func CertificateNotAfter(t int64) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagCertificateNotAfter, num: t}
}

// MaxBootLevel は鍵を利用できる最大のブートレベル。
func MaxBootLevel(level int32) KeyParameterValue {
	return KeyParameterValue{tag: hsm.TagMaxBootLevel, num: int64(level)}
}

// Tag はこの値のタグを返す。
func (v KeyParameterValue) Tag() hsm.Tag {
	return v.tag
}

// Equal は2つのパラメータ値が等しいかを判定する。
func (v KeyParameterValue) Equal(other KeyParameterValue) bool {
	return v.tag == other.tag && v.num == other.num && bytes.Equal(v.blob, other.blob)
}

// KeyParameter は鍵パラメータ値と、それを保証するセキュリティレベルの組。
// 生成後に変更されることはない。
type KeyParameter struct {
	value         KeyParameterValue
	securityLevel hsm.SecurityLevel
}

// NewKeyParameter は値とセキュリティレベルからKeyParameterを作る。
func NewKeyParameter(value KeyParameterValue, level hsm.SecurityLevel) KeyParameter {
	return KeyParameter{value: value, securityLevel: level}
}

// NewKeyParameterFromSQL はストレージの1行からKeyParameterを復元する。
func NewKeyParameterFromSQL(tag hsm.Tag, field *SQLField, level hsm.SecurityLevel) (KeyParameter, error) {
	value, err := NewFromSQL(tag, field)
	if err != nil {
		return KeyParameter{}, err
	}
	return KeyParameter{value: value, securityLevel: level}, nil
}

// Tag はパラメータのタグを返す。
func (p KeyParameter) Tag() hsm.Tag {
	return p.value.Tag()
}

// KeyParameterValue はパラメータ値を返す。
func (p KeyParameter) KeyParameterValue() KeyParameterValue {
	return p.value
}

// SecurityLevel はこのパラメータを保証するセキュリティレベルを返す。
func (p KeyParameter) SecurityLevel() hsm.SecurityLevel {
	return p.securityLevel
}

// ToAuthorization はクライアント境界へ公開する承認レコードへ変換する。
func (p KeyParameter) ToAuthorization() Authorization {
	return Authorization{
		SecurityLevel: p.securityLevel,
		KeyParameter:  p.value.ToWire(),
	}
}

// Authorization はクライアント境界へ公開される鍵パラメータの承認レコード。
type Authorization struct {
	SecurityLevel hsm.SecurityLevel
	KeyParameter  hsm.KeyParameter
}
