package infra

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"key-custody-service/config"
	"key-custody-service/internal/domain"
	"key-custody-service/internal/hsm"
)

const rsaDefaultExponent = 65537

// SoftHSM はソフトウェア実装のセキュアモジュール。鍵素材をプロセス内で
// 生成し、生成時の環境情報を特性として刻印する。
type SoftHSM struct {
	osVersion        int32
	osPatchlevel     int32
	vendorPatchlevel int32
	bootPatchlevel   int32
}

// NewSoftHSM は設定からSoftHSMを生成する。
func NewSoftHSM(cfg *config.Config) *SoftHSM {
	return &SoftHSM{
		osVersion:        int32(cfg.OSVersion),
		osPatchlevel:     int32(cfg.OSPatchlevel),
		vendorPatchlevel: int32(cfg.VendorPatchlevel),
		bootPatchlevel:   int32(cfg.BootPatchlevel),
	}
}

// GenerateKey は与えられたパラメータに従って鍵素材を生成し、モジュールが
// 保証する特性と共に返す。未知のタグや型の合わないペイロードは受け付けない。
func (m *SoftHSM) GenerateKey(ctx context.Context, params []hsm.KeyParameter) (*hsm.GeneratedKey, error) {
	// パラメータの厳密な検証。境界の内側では寛容に扱わない。
	for _, p := range params {
		if domain.FromWire(p).Tag() == hsm.TagInvalid {
			return nil, fmt.Errorf("tag %s: %w", p.Tag, domain.ErrInvalidParameter)
		}
	}

	var (
		algorithm     hsm.Algorithm
		hasAlgorithm  bool
		keySize       int32
		hasKeySize    bool
		curve         hsm.ECCurve
		hasCurve      bool
		inferredCurve bool
		exponent      int64
	)
	for _, p := range params {
		switch v := p.Value.(type) {
		case hsm.Algorithm:
			algorithm = v
			hasAlgorithm = true
		case hsm.Integer:
			if p.Tag == hsm.TagKeySize {
				keySize = int32(v)
				hasKeySize = true
			}
		case hsm.ECCurve:
			curve = v
			hasCurve = true
		case hsm.LongInteger:
			if p.Tag == hsm.TagRSAPublicExponent {
				exponent = int64(v)
			}
		}
	}
	if !hasAlgorithm {
		return nil, fmt.Errorf("missing ALGORITHM: %w", domain.ErrInvalidParameter)
	}

	var keyBlob []byte
	switch algorithm {
	case hsm.AlgorithmAES:
		if !hasKeySize {
			return nil, fmt.Errorf("missing KEY_SIZE: %w", domain.ErrInvalidParameter)
		}
		switch keySize {
		case 128, 192, 256:
		default:
			return nil, fmt.Errorf("unsupported AES key size %d: %w", keySize, domain.ErrInvalidParameter)
		}
		blob, err := randomBytes(int(keySize) / 8)
		if err != nil {
			return nil, err
		}
		keyBlob = blob
	case hsm.AlgorithmHMAC:
		if !hasKeySize || keySize < 64 || keySize > 512 || keySize%8 != 0 {
			return nil, fmt.Errorf("unsupported HMAC key size %d: %w", keySize, domain.ErrInvalidParameter)
		}
		blob, err := randomBytes(int(keySize) / 8)
		if err != nil {
			return nil, err
		}
		keyBlob = blob
	case hsm.AlgorithmTripleDES:
		if !hasKeySize {
			keySize = 168
		}
		if keySize != 168 {
			return nil, fmt.Errorf("unsupported TRIPLE_DES key size %d: %w", keySize, domain.ErrInvalidParameter)
		}
		blob, err := randomBytes(24)
		if err != nil {
			return nil, err
		}
		keyBlob = blob
	case hsm.AlgorithmRSA:
		if !hasKeySize {
			return nil, fmt.Errorf("missing KEY_SIZE: %w", domain.ErrInvalidParameter)
		}
		switch keySize {
		case 2048, 3072, 4096:
		default:
			return nil, fmt.Errorf("unsupported RSA key size %d: %w", keySize, domain.ErrInvalidParameter)
		}
		if exponent != 0 && exponent != rsaDefaultExponent {
			return nil, fmt.Errorf("unsupported RSA public exponent %d: %w", exponent, domain.ErrInvalidParameter)
		}
		key, err := rsa.GenerateKey(rand.Reader, int(keySize))
		if err != nil {
			return nil, fmt.Errorf("generating RSA key: %w", err)
		}
		blob, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("encoding RSA key: %w", err)
		}
		keyBlob = blob
	case hsm.AlgorithmEC:
		if !hasCurve {
			c, ok := curveForKeySize(keySize)
			if !ok {
				return nil, fmt.Errorf("missing EC_CURVE: %w", domain.ErrInvalidParameter)
			}
			curve = c
			inferredCurve = true
		}
		blob, bits, err := generateECKey(curve)
		if err != nil {
			return nil, err
		}
		keyBlob = blob
		if !hasKeySize {
			keySize = bits
		}
	default:
		return nil, fmt.Errorf("unsupported algorithm %s: %w", algorithm, domain.ErrInvalidParameter)
	}

	// 呼び出し元のパラメータに、モジュールが保証する生成時の事実を加える
	characteristics := make([]hsm.KeyParameter, 0, len(params)+6)
	characteristics = append(characteristics, params...)
	characteristics = append(characteristics, hsm.KeyParameter{Tag: hsm.TagOrigin, Value: hsm.KeyOriginGenerated})
	if !hasKeySize && keySize > 0 {
		characteristics = append(characteristics, hsm.KeyParameter{Tag: hsm.TagKeySize, Value: hsm.Integer(keySize)})
	}
	if inferredCurve {
		characteristics = append(characteristics, hsm.KeyParameter{Tag: hsm.TagECCurve, Value: curve})
	}
	characteristics = append(characteristics,
		hsm.KeyParameter{Tag: hsm.TagOSVersion, Value: hsm.Integer(m.osVersion)},
		hsm.KeyParameter{Tag: hsm.TagOSPatchlevel, Value: hsm.Integer(m.osPatchlevel)},
		hsm.KeyParameter{Tag: hsm.TagVendorPatchlevel, Value: hsm.Integer(m.vendorPatchlevel)},
		hsm.KeyParameter{Tag: hsm.TagBootPatchlevel, Value: hsm.Integer(m.bootPatchlevel)},
	)

	return &hsm.GeneratedKey{
		KeyBlob: keyBlob,
		Characteristics: []hsm.KeyCharacteristics{
			{SecurityLevel: hsm.SecurityLevelSoftware, Parameters: characteristics},
		},
	}, nil
}

// randomBytes は暗号論的乱数でnバイトを生成する。
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating random key: %w", err)
	}
	return b, nil
}

// curveForKeySize は鍵長から楕円曲線を推定する。
func curveForKeySize(bits int32) (hsm.ECCurve, bool) {
	switch bits {
	case 224:
		return hsm.ECCurveP224, true
	case 256:
		return hsm.ECCurveP256, true
	case 384:
		return hsm.ECCurveP384, true
	case 521:
		return hsm.ECCurveP521, true
	default:
		return 0, false
	}
}

// generateECKey は指定された曲線の鍵ペアを生成し、PKCS#8形式の秘密鍵と
// 鍵長を返す。
func generateECKey(curve hsm.ECCurve) ([]byte, int32, error) {
	if curve == hsm.ECCurveCurve25519 {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, 0, fmt.Errorf("generating ed25519 key: %w", err)
		}
		blob, err := x509.MarshalPKCS8PrivateKey(priv)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding ed25519 key: %w", err)
		}
		return blob, 256, nil
	}

	var c elliptic.Curve
	var bits int32
	switch curve {
	case hsm.ECCurveP224:
		c, bits = elliptic.P224(), 224
	case hsm.ECCurveP256:
		c, bits = elliptic.P256(), 256
	case hsm.ECCurveP384:
		c, bits = elliptic.P384(), 384
	case hsm.ECCurveP521:
		c, bits = elliptic.P521(), 521
	default:
		return nil, 0, fmt.Errorf("unsupported EC curve %s: %w", curve, domain.ErrInvalidParameter)
	}

	key, err := ecdsa.GenerateKey(c, rand.Reader)
	if err != nil {
		return nil, 0, fmt.Errorf("generating EC key: %w", err)
	}
	blob, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding EC key: %w", err)
	}
	return blob, bits, nil
}
