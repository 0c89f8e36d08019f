package hsm

import "fmt"

// Algorithm は鍵の暗号アルゴリズムを表す。
type Algorithm int32

const (
	AlgorithmRSA       Algorithm = 1
	AlgorithmEC        Algorithm = 3
	AlgorithmAES       Algorithm = 32
	AlgorithmTripleDES Algorithm = 33
	AlgorithmHMAC      Algorithm = 128
)

// String はアルゴリズムのプラットフォーム定義名を返す。
func (a Algorithm) String() string {
	switch a {
	case AlgorithmRSA:
		return "RSA"
	case AlgorithmEC:
		return "EC"
	case AlgorithmAES:
		return "AES"
	case AlgorithmTripleDES:
		return "TRIPLE_DES"
	case AlgorithmHMAC:
		return "HMAC"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(a))
	}
}

// ParseAlgorithm はプラットフォーム定義名からアルゴリズムを引く。
func ParseAlgorithm(name string) (Algorithm, bool) {
	switch name {
	case "RSA":
		return AlgorithmRSA, true
	case "EC":
		return AlgorithmEC, true
	case "AES":
		return AlgorithmAES, true
	case "TRIPLE_DES":
		return AlgorithmTripleDES, true
	case "HMAC":
		return AlgorithmHMAC, true
	default:
		return 0, false
	}
}

// BlockMode は共通鍵暗号のブロックモードを表す。
type BlockMode int32

const (
	BlockModeECB BlockMode = 1
	BlockModeCBC BlockMode = 2
	BlockModeCTR BlockMode = 3
	BlockModeGCM BlockMode = 32
)

// String はブロックモードのプラットフォーム定義名を返す。
func (m BlockMode) String() string {
	switch m {
	case BlockModeECB:
		return "ECB"
	case BlockModeCBC:
		return "CBC"
	case BlockModeCTR:
		return "CTR"
	case BlockModeGCM:
		return "GCM"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(m))
	}
}

// ParseBlockMode はプラットフォーム定義名からブロックモードを引く。
func ParseBlockMode(name string) (BlockMode, bool) {
	switch name {
	case "ECB":
		return BlockModeECB, true
	case "CBC":
		return BlockModeCBC, true
	case "CTR":
		return BlockModeCTR, true
	case "GCM":
		return BlockModeGCM, true
	default:
		return 0, false
	}
}

// PaddingMode は署名・暗号化のパディング方式を表す。
type PaddingMode int32

const (
	PaddingModeNone              PaddingMode = 1
	PaddingModeRSAOAEP           PaddingMode = 2
	PaddingModeRSAPSS            PaddingMode = 3
	PaddingModeRSAPKCS115Encrypt PaddingMode = 4
	PaddingModeRSAPKCS115Sign    PaddingMode = 5
	PaddingModePKCS7             PaddingMode = 64
)

// String はパディング方式のプラットフォーム定義名を返す。
func (p PaddingMode) String() string {
	switch p {
	case PaddingModeNone:
		return "NONE"
	case PaddingModeRSAOAEP:
		return "RSA_OAEP"
	case PaddingModeRSAPSS:
		return "RSA_PSS"
	case PaddingModeRSAPKCS115Encrypt:
		return "RSA_PKCS1_1_5_ENCRYPT"
	case PaddingModeRSAPKCS115Sign:
		return "RSA_PKCS1_1_5_SIGN"
	case PaddingModePKCS7:
		return "PKCS7"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(p))
	}
}

// ParsePaddingMode はプラットフォーム定義名からパディング方式を引く。
func ParsePaddingMode(name string) (PaddingMode, bool) {
	switch name {
	case "NONE":
		return PaddingModeNone, true
	case "RSA_OAEP":
		return PaddingModeRSAOAEP, true
	case "RSA_PSS":
		return PaddingModeRSAPSS, true
	case "RSA_PKCS1_1_5_ENCRYPT":
		return PaddingModeRSAPKCS115Encrypt, true
	case "RSA_PKCS1_1_5_SIGN":
		return PaddingModeRSAPKCS115Sign, true
	case "PKCS7":
		return PaddingModePKCS7, true
	default:
		return 0, false
	}
}

// Digest はハッシュアルゴリズムを表す。
type Digest int32

const (
	DigestNone    Digest = 0
	DigestMD5     Digest = 1
	DigestSHA1    Digest = 2
	DigestSHA2224 Digest = 3
	DigestSHA2256 Digest = 4
	DigestSHA2384 Digest = 5
	DigestSHA2512 Digest = 6
)

// String はハッシュアルゴリズムのプラットフォーム定義名を返す。
func (d Digest) String() string {
	switch d {
	case DigestNone:
		return "NONE"
	case DigestMD5:
		return "MD5"
	case DigestSHA1:
		return "SHA1"
	case DigestSHA2224:
		return "SHA_2_224"
	case DigestSHA2256:
		return "SHA_2_256"
	case DigestSHA2384:
		return "SHA_2_384"
	case DigestSHA2512:
		return "SHA_2_512"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(d))
	}
}

// ParseDigest はプラットフォーム定義名からハッシュアルゴリズムを引く。
func ParseDigest(name string) (Digest, bool) {
	switch name {
	case "NONE":
		return DigestNone, true
	case "MD5":
		return DigestMD5, true
	case "SHA1":
		return DigestSHA1, true
	case "SHA_2_224":
		return DigestSHA2224, true
	case "SHA_2_256":
		return DigestSHA2256, true
	case "SHA_2_384":
		return DigestSHA2384, true
	case "SHA_2_512":
		return DigestSHA2512, true
	default:
		return 0, false
	}
}

// ECCurve は楕円曲線を表す。
type ECCurve int32

const (
	ECCurveP224       ECCurve = 0
	ECCurveP256       ECCurve = 1
	ECCurveP384       ECCurve = 2
	ECCurveP521       ECCurve = 3
	ECCurveCurve25519 ECCurve = 4
)

// String は楕円曲線のプラットフォーム定義名を返す。
func (c ECCurve) String() string {
	switch c {
	case ECCurveP224:
		return "P_224"
	case ECCurveP256:
		return "P_256"
	case ECCurveP384:
		return "P_384"
	case ECCurveP521:
		return "P_521"
	case ECCurveCurve25519:
		return "CURVE_25519"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(c))
	}
}

// ParseECCurve はプラットフォーム定義名から楕円曲線を引く。
func ParseECCurve(name string) (ECCurve, bool) {
	switch name {
	case "P_224":
		return ECCurveP224, true
	case "P_256":
		return ECCurveP256, true
	case "P_384":
		return ECCurveP384, true
	case "P_521":
		return ECCurveP521, true
	case "CURVE_25519":
		return ECCurveCurve25519, true
	default:
		return 0, false
	}
}

// KeyOrigin は鍵素材の出自を表す。
type KeyOrigin int32

const (
	KeyOriginGenerated        KeyOrigin = 0
	KeyOriginDerived          KeyOrigin = 1
	KeyOriginImported         KeyOrigin = 2
	KeyOriginReserved         KeyOrigin = 3
	KeyOriginSecurelyImported KeyOrigin = 4
)

// String は鍵素材の出自のプラットフォーム定義名を返す。
func (o KeyOrigin) String() string {
	switch o {
	case KeyOriginGenerated:
		return "GENERATED"
	case KeyOriginDerived:
		return "DERIVED"
	case KeyOriginImported:
		return "IMPORTED"
	case KeyOriginReserved:
		return "RESERVED"
	case KeyOriginSecurelyImported:
		return "SECURELY_IMPORTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(o))
	}
}

// KeyPurpose は鍵の用途を表す。
type KeyPurpose int32

const (
	KeyPurposeEncrypt   KeyPurpose = 0
	KeyPurposeDecrypt   KeyPurpose = 1
	KeyPurposeSign      KeyPurpose = 2
	KeyPurposeVerify    KeyPurpose = 3
	KeyPurposeWrapKey   KeyPurpose = 5
	KeyPurposeAgreeKey  KeyPurpose = 6
	KeyPurposeAttestKey KeyPurpose = 7
)

// String は鍵用途のプラットフォーム定義名を返す。
func (p KeyPurpose) String() string {
	switch p {
	case KeyPurposeEncrypt:
		return "ENCRYPT"
	case KeyPurposeDecrypt:
		return "DECRYPT"
	case KeyPurposeSign:
		return "SIGN"
	case KeyPurposeVerify:
		return "VERIFY"
	case KeyPurposeWrapKey:
		return "WRAP_KEY"
	case KeyPurposeAgreeKey:
		return "AGREE_KEY"
	case KeyPurposeAttestKey:
		return "ATTEST_KEY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(p))
	}
}

// ParseKeyPurpose はプラットフォーム定義名から鍵用途を引く。
func ParseKeyPurpose(name string) (KeyPurpose, bool) {
	switch name {
	case "ENCRYPT":
		return KeyPurposeEncrypt, true
	case "DECRYPT":
		return KeyPurposeDecrypt, true
	case "SIGN":
		return KeyPurposeSign, true
	case "VERIFY":
		return KeyPurposeVerify, true
	case "WRAP_KEY":
		return KeyPurposeWrapKey, true
	case "AGREE_KEY":
		return KeyPurposeAgreeKey, true
	case "ATTEST_KEY":
		return KeyPurposeAttestKey, true
	default:
		return 0, false
	}
}

// HardwareAuthenticatorType は利用者認証の方式を表すビットマスク。
type HardwareAuthenticatorType int32

const (
	HardwareAuthenticatorTypeNone        HardwareAuthenticatorType = 0
	HardwareAuthenticatorTypePassword    HardwareAuthenticatorType = 1
	HardwareAuthenticatorTypeFingerprint HardwareAuthenticatorType = 2
	// HardwareAuthenticatorTypeAny は全ビットが立った値。
	HardwareAuthenticatorTypeAny HardwareAuthenticatorType = -1
)

// String は認証方式のプラットフォーム定義名を返す。
func (t HardwareAuthenticatorType) String() string {
	switch t {
	case HardwareAuthenticatorTypeNone:
		return "NONE"
	case HardwareAuthenticatorTypePassword:
		return "PASSWORD"
	case HardwareAuthenticatorTypeFingerprint:
		return "FINGERPRINT"
	case HardwareAuthenticatorTypeAny:
		return "ANY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(t))
	}
}

// SecurityLevel はパラメータを保証する実行環境を表す。
type SecurityLevel int32

const (
	SecurityLevelSoftware           SecurityLevel = 0
	SecurityLevelTrustedEnvironment SecurityLevel = 1
	SecurityLevelStrongbox          SecurityLevel = 2
	// SecurityLevelKeystore はホスト側のカストディデーモンが主張する
	// パラメータに付くレベル。
	SecurityLevelKeystore SecurityLevel = 4
)

// String はセキュリティレベルのプラットフォーム定義名を返す。
func (l SecurityLevel) String() string {
	switch l {
	case SecurityLevelSoftware:
		return "SOFTWARE"
	case SecurityLevelTrustedEnvironment:
		return "TRUSTED_ENVIRONMENT"
	case SecurityLevelStrongbox:
		return "STRONGBOX"
	case SecurityLevelKeystore:
		return "KEYSTORE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(l))
	}
}
