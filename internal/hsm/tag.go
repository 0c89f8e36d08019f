package hsm

import "fmt"

// Tag は鍵パラメータの意味とペイロード型クラスを識別するタグ。
// 値の上位4ビットに型クラス、下位に連番を埋め込むプラットフォーム定義の
// エンコーディングに従う。
type Tag uint32

// タグ値に埋め込まれる型クラスビット。
const (
	tagTypeInvalid  Tag = 0 << 28
	tagTypeEnum     Tag = 1 << 28
	tagTypeEnumRep  Tag = 2 << 28
	tagTypeUint     Tag = 3 << 28
	tagTypeUintRep  Tag = 4 << 28
	tagTypeUlong    Tag = 5 << 28
	tagTypeDate     Tag = 6 << 28
	tagTypeBool     Tag = 7 << 28
	tagTypeBignum   Tag = 8 << 28
	tagTypeBytes    Tag = 9 << 28
	tagTypeUlongRep Tag = 10 << 28
)

const (
	// TagInvalid は不明・不正なパラメータを示す予約タグ。
	TagInvalid Tag = tagTypeInvalid | 0

	// 暗号方式に関するタグ。
	TagPurpose           Tag = tagTypeEnumRep | 1
	TagAlgorithm         Tag = tagTypeEnum | 2
	TagKeySize           Tag = tagTypeUint | 3
	TagBlockMode         Tag = tagTypeEnumRep | 4
	TagDigest            Tag = tagTypeEnumRep | 5
	TagPadding           Tag = tagTypeEnumRep | 6
	TagCallerNonce       Tag = tagTypeBool | 7
	TagMinMacLength      Tag = tagTypeUint | 8
	TagECCurve           Tag = tagTypeEnum | 10
	TagRSAPublicExponent Tag = tagTypeUlong | 200
	TagIncludeUniqueID   Tag = tagTypeBool | 202
	TagRSAOAEPMGFDigest  Tag = tagTypeEnumRep | 203

	// 鍵の利用条件に関するタグ。
	TagBootloaderOnly            Tag = tagTypeBool | 302
	TagRollbackResistance        Tag = tagTypeBool | 303
	TagEarlyBootOnly             Tag = tagTypeBool | 305
	TagActiveDateTime            Tag = tagTypeDate | 400
	TagOriginationExpireDateTime Tag = tagTypeDate | 401
	TagUsageExpireDateTime       Tag = tagTypeDate | 402
	TagMinSecondsBetweenOps      Tag = tagTypeUint | 403
	TagMaxUsesPerBoot            Tag = tagTypeUint | 404
	TagUsageCountLimit           Tag = tagTypeUint | 405

	// 利用者認証に関するタグ。
	TagUserID                      Tag = tagTypeUint | 501
	TagUserSecureID                Tag = tagTypeUlongRep | 502
	TagNoAuthRequired              Tag = tagTypeBool | 503
	TagUserAuthType                Tag = tagTypeEnum | 504
	TagAuthTimeout                 Tag = tagTypeUint | 505
	TagAllowWhileOnBody            Tag = tagTypeBool | 506
	TagTrustedUserPresenceRequired Tag = tagTypeBool | 507
	TagTrustedConfirmationRequired Tag = tagTypeBool | 508
	TagUnlockedDeviceRequired      Tag = tagTypeBool | 509

	// 呼び出し元の識別に関するタグ。
	TagApplicationID   Tag = tagTypeBytes | 601
	TagApplicationData Tag = tagTypeBytes | 700

	// 生成時にセキュアモジュールまたはホストが刻印するタグ。
	TagCreationDateTime Tag = tagTypeDate | 701
	TagOrigin           Tag = tagTypeEnum | 702
	TagRootOfTrust      Tag = tagTypeBytes | 704
	TagOSVersion        Tag = tagTypeUint | 705
	TagOSPatchlevel     Tag = tagTypeUint | 706
	TagUniqueID         Tag = tagTypeBytes | 707

	// アテステーションに関するタグ。
	TagAttestationChallenge      Tag = tagTypeBytes | 708
	TagAttestationApplicationID  Tag = tagTypeBytes | 709
	TagAttestationIDBrand        Tag = tagTypeBytes | 710
	TagAttestationIDDevice       Tag = tagTypeBytes | 711
	TagAttestationIDProduct      Tag = tagTypeBytes | 712
	TagAttestationIDSerial       Tag = tagTypeBytes | 713
	TagAttestationIDIMEI         Tag = tagTypeBytes | 714
	TagAttestationIDMEID         Tag = tagTypeBytes | 715
	TagAttestationIDManufacturer Tag = tagTypeBytes | 716
	TagAttestationIDModel        Tag = tagTypeBytes | 717
	TagVendorPatchlevel          Tag = tagTypeUint | 718
	TagBootPatchlevel            Tag = tagTypeUint | 719
	TagAttestationIDSecondIMEI   Tag = tagTypeBytes | 723

	// 単発の操作・証明書発行に関するタグ。
	TagAssociatedData       Tag = tagTypeBytes | 1000
	TagNonce                Tag = tagTypeBytes | 1001
	TagMacLength            Tag = tagTypeUint | 1003
	TagResetSinceIDRotation Tag = tagTypeBool | 1004
	TagConfirmationToken    Tag = tagTypeBytes | 1005
	TagCertificateSerial    Tag = tagTypeBignum | 1006
	TagCertificateSubject   Tag = tagTypeBytes | 1007
	TagCertificateNotBefore Tag = tagTypeDate | 1008
	TagCertificateNotAfter  Tag = tagTypeDate | 1009
	TagMaxBootLevel         Tag = tagTypeUint | 1010
)

// tagNames はタグのプラットフォーム定義名。ログ・API・CLIでの表記に使う。
var tagNames = map[Tag]string{
	TagInvalid:                     "INVALID",
	TagPurpose:                     "PURPOSE",
	TagAlgorithm:                   "ALGORITHM",
	TagKeySize:                     "KEY_SIZE",
	TagBlockMode:                   "BLOCK_MODE",
	TagDigest:                      "DIGEST",
	TagPadding:                     "PADDING",
	TagCallerNonce:                 "CALLER_NONCE",
	TagMinMacLength:                "MIN_MAC_LENGTH",
	TagECCurve:                     "EC_CURVE",
	TagRSAPublicExponent:           "RSA_PUBLIC_EXPONENT",
	TagIncludeUniqueID:             "INCLUDE_UNIQUE_ID",
	TagRSAOAEPMGFDigest:            "RSA_OAEP_MGF_DIGEST",
	TagBootloaderOnly:              "BOOTLOADER_ONLY",
	TagRollbackResistance:          "ROLLBACK_RESISTANCE",
	TagEarlyBootOnly:               "EARLY_BOOT_ONLY",
	TagActiveDateTime:              "ACTIVE_DATETIME",
	TagOriginationExpireDateTime:   "ORIGINATION_EXPIRE_DATETIME",
	TagUsageExpireDateTime:         "USAGE_EXPIRE_DATETIME",
	TagMinSecondsBetweenOps:        "MIN_SECONDS_BETWEEN_OPS",
	TagMaxUsesPerBoot:              "MAX_USES_PER_BOOT",
	TagUsageCountLimit:             "USAGE_COUNT_LIMIT",
	TagUserID:                      "USER_ID",
	TagUserSecureID:                "USER_SECURE_ID",
	TagNoAuthRequired:              "NO_AUTH_REQUIRED",
	TagUserAuthType:                "USER_AUTH_TYPE",
	TagAuthTimeout:                 "AUTH_TIMEOUT",
	TagAllowWhileOnBody:            "ALLOW_WHILE_ON_BODY",
	TagTrustedUserPresenceRequired: "TRUSTED_USER_PRESENCE_REQUIRED",
	TagTrustedConfirmationRequired: "TRUSTED_CONFIRMATION_REQUIRED",
	TagUnlockedDeviceRequired:      "UNLOCKED_DEVICE_REQUIRED",
	TagApplicationID:               "APPLICATION_ID",
	TagApplicationData:             "APPLICATION_DATA",
	TagCreationDateTime:            "CREATION_DATETIME",
	TagOrigin:                      "ORIGIN",
	TagRootOfTrust:                 "ROOT_OF_TRUST",
	TagOSVersion:                   "OS_VERSION",
	TagOSPatchlevel:                "OS_PATCHLEVEL",
	TagUniqueID:                    "UNIQUE_ID",
	TagAttestationChallenge:        "ATTESTATION_CHALLENGE",
	TagAttestationApplicationID:    "ATTESTATION_APPLICATION_ID",
	TagAttestationIDBrand:          "ATTESTATION_ID_BRAND",
	TagAttestationIDDevice:         "ATTESTATION_ID_DEVICE",
	TagAttestationIDProduct:        "ATTESTATION_ID_PRODUCT",
	TagAttestationIDSerial:         "ATTESTATION_ID_SERIAL",
	TagAttestationIDIMEI:           "ATTESTATION_ID_IMEI",
	TagAttestationIDMEID:           "ATTESTATION_ID_MEID",
	TagAttestationIDManufacturer:   "ATTESTATION_ID_MANUFACTURER",
	TagAttestationIDModel:          "ATTESTATION_ID_MODEL",
	TagVendorPatchlevel:            "VENDOR_PATCHLEVEL",
	TagBootPatchlevel:              "BOOT_PATCHLEVEL",
	TagAttestationIDSecondIMEI:     "ATTESTATION_ID_SECOND_IMEI",
	TagAssociatedData:              "ASSOCIATED_DATA",
	TagNonce:                       "NONCE",
	TagMacLength:                   "MAC_LENGTH",
	TagResetSinceIDRotation:        "RESET_SINCE_ID_ROTATION",
	TagConfirmationToken:           "CONFIRMATION_TOKEN",
	TagCertificateSerial:           "CERTIFICATE_SERIAL",
	TagCertificateSubject:          "CERTIFICATE_SUBJECT",
	TagCertificateNotBefore:        "CERTIFICATE_NOT_BEFORE",
	TagCertificateNotAfter:         "CERTIFICATE_NOT_AFTER",
	TagMaxBootLevel:                "MAX_BOOT_LEVEL",
}

var tagsByName = make(map[string]Tag, len(tagNames))

func init() {
	for tag, name := range tagNames {
		tagsByName[name] = tag
	}
}

// String はタグのプラットフォーム定義名を返す。未定義のタグは16進表記。
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%#08x)", uint32(t))
}

// ParseTag はプラットフォーム定義名からタグを引く。
func ParseTag(name string) (Tag, bool) {
	tag, ok := tagsByName[name]
	return tag, ok
}
