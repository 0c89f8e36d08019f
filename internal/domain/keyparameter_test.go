package domain

import (
	"testing"

	"key-custody-service/internal/hsm"
)

// sampleParameterValues は全タグの代表値を1つずつ返す。変換系のテストは
// この一覧を総当たりして表との整合を検証する。
func sampleParameterValues() []KeyParameterValue {
	return []KeyParameterValue{
		Invalid(),
		KeyPurpose(hsm.KeyPurposeSign),
		Algorithm(hsm.AlgorithmAES),
		KeySize(256),
		BlockMode(hsm.BlockModeGCM),
		Digest(hsm.DigestSHA2256),
		RSAOAEPMGFDigest(hsm.DigestSHA1),
		PaddingMode(hsm.PaddingModePKCS7),
		CallerNonce(),
		MinMacLength(128),
		ECCurve(hsm.ECCurveP256),
		RSAPublicExponent(65537),
		IncludeUniqueID(),
		BootloaderOnly(),
		RollbackResistance(),
		EarlyBootOnly(),
		ActiveDateTime(1700000000000),
		OriginationExpireDateTime(1700000001000),
		UsageExpireDateTime(1700000002000),
		MinSecondsBetweenOps(30),
		MaxUsesPerBoot(10),
		UsageCountLimit(100),
		UserID(42),
		UserSecureID(1234567890123),
		NoAuthRequired(),
		HardwareAuthenticatorType(hsm.HardwareAuthenticatorTypeFingerprint),
		AuthTimeout(300),
		AllowWhileOnBody(),
		TrustedUserPresenceRequired(),
		TrustedConfirmationRequired(),
		UnlockedDeviceRequired(),
		ApplicationID([]byte("app-id")),
		ApplicationData([]byte("app-data")),
		CreationDateTime(1700000003000),
		KeyOrigin(hsm.KeyOriginGenerated),
		RootOfTrust([]byte("root-of-trust")),
		OSVersion(140000),
		OSPatchlevel(202508),
		UniqueID([]byte("unique-id")),
		AttestationChallenge([]byte("challenge")),
		AttestationApplicationID([]byte("attest-app-id")),
		AttestationIDBrand([]byte("brand")),
		AttestationIDDevice([]byte("device")),
		AttestationIDProduct([]byte("product")),
		AttestationIDSerial([]byte("serial")),
		AttestationIDIMEI([]byte("000000000000001")),
		AttestationIDSecondIMEI([]byte("000000000000002")),
		AttestationIDMEID([]byte("meid")),
		AttestationIDManufacturer([]byte("manufacturer")),
		AttestationIDModel([]byte("model")),
		VendorPatchlevel(20250805),
		BootPatchlevel(20250801),
		AssociatedData([]byte("associated-data")),
		Nonce([]byte("nonce-bytes")),
		MacLength(128),
		ResetSinceIDRotation(),
		ConfirmationToken([]byte("confirmation")),
		CertificateSerial([]byte{0x01, 0x02, 0x03}),
		CertificateSubject([]byte("CN=custody")),
		CertificateNotBefore(1700000004000),
		CertificateNotAfter(1700000005000),
		MaxBootLevel(3),
	}
}

// TestKeyParameterValue_VariantsMatchClassTable はコンストラクタの集合と
// ペイロードクラス表が過不足なく一致することを検証する。タグを追加する
// ときは表・コンストラクタ・代表値の3箇所を揃える必要がある。
func TestKeyParameterValue_VariantsMatchClassTable(t *testing.T) {
	samples := sampleParameterValues()

	seen := make(map[hsm.Tag]bool, len(samples))
	for _, v := range samples {
		if seen[v.Tag()] {
			t.Errorf("duplicate sample for tag %s", v.Tag())
		}
		seen[v.Tag()] = true

		if _, ok := keyParameterClasses[v.Tag()]; !ok {
			t.Errorf("tag %s has a constructor but no class table entry", v.Tag())
		}
	}

	for tag := range keyParameterClasses {
		if !seen[tag] {
			t.Errorf("tag %s has a class table entry but no sample", tag)
		}
	}

	if len(samples) != len(keyParameterClasses) {
		t.Errorf("expected %d samples, got %d", len(keyParameterClasses), len(samples))
	}
}

func TestKeyParameterValue_Tag(t *testing.T) {
	if got := KeySize(256).Tag(); got != hsm.TagKeySize {
		t.Errorf("expected tag KEY_SIZE, got %s", got)
	}
	if got := Invalid().Tag(); got != hsm.TagInvalid {
		t.Errorf("expected tag INVALID, got %s", got)
	}
	if got := HardwareAuthenticatorType(hsm.HardwareAuthenticatorTypeAny).Tag(); got != hsm.TagUserAuthType {
		t.Errorf("expected tag USER_AUTH_TYPE, got %s", got)
	}
}

func TestKeyParameterValue_Equal(t *testing.T) {
	if !KeySize(256).Equal(KeySize(256)) {
		t.Error("expected equal values for same tag and payload")
	}
	if KeySize(256).Equal(KeySize(128)) {
		t.Error("expected unequal values for different payloads")
	}
	if KeySize(256).Equal(MacLength(256)) {
		t.Error("expected unequal values for different tags")
	}
	if !Nonce([]byte{1, 2, 3}).Equal(Nonce([]byte{1, 2, 3})) {
		t.Error("expected equal values for same blob payload")
	}
	if Nonce([]byte{1, 2, 3}).Equal(Nonce([]byte{1, 2, 4})) {
		t.Error("expected unequal values for different blob payloads")
	}
	// nilブロブと空ブロブは同値として扱う
	if !ApplicationID(nil).Equal(ApplicationID([]byte{})) {
		t.Error("expected nil blob and empty blob to be equal")
	}
}

func TestKeyParameter_Accessors(t *testing.T) {
	p := NewKeyParameter(KeySize(256), hsm.SecurityLevelTrustedEnvironment)

	if p.Tag() != hsm.TagKeySize {
		t.Errorf("expected tag KEY_SIZE, got %s", p.Tag())
	}
	if !p.KeyParameterValue().Equal(KeySize(256)) {
		t.Errorf("expected value KEY_SIZE=256, got tag %s", p.KeyParameterValue().Tag())
	}
	if p.SecurityLevel() != hsm.SecurityLevelTrustedEnvironment {
		t.Errorf("expected security level TRUSTED_ENVIRONMENT, got %s", p.SecurityLevel())
	}
}

func TestKeyParameter_ToAuthorization(t *testing.T) {
	p := NewKeyParameter(Algorithm(hsm.AlgorithmAES), hsm.SecurityLevelStrongbox)
	auth := p.ToAuthorization()

	if auth.SecurityLevel != hsm.SecurityLevelStrongbox {
		t.Errorf("expected security level STRONGBOX, got %s", auth.SecurityLevel)
	}
	if auth.KeyParameter.Tag != hsm.TagAlgorithm {
		t.Errorf("expected tag ALGORITHM, got %s", auth.KeyParameter.Tag)
	}
	algo, ok := auth.KeyParameter.Value.(hsm.Algorithm)
	if !ok {
		t.Fatalf("expected Algorithm payload, got %T", auth.KeyParameter.Value)
	}
	if algo != hsm.AlgorithmAES {
		t.Errorf("expected AES, got %s", algo)
	}
}

// TestKeyParameter_ToAuthorization_Flag はフラグ系のパラメータが承認レコード
// 上で真のブール値として公開されることを検証する。
func TestKeyParameter_ToAuthorization_Flag(t *testing.T) {
	p := NewKeyParameter(NoAuthRequired(), hsm.SecurityLevelKeystore)
	auth := p.ToAuthorization()

	if auth.SecurityLevel != hsm.SecurityLevelKeystore {
		t.Errorf("expected security level KEYSTORE, got %s", auth.SecurityLevel)
	}
	b, ok := auth.KeyParameter.Value.(hsm.BoolValue)
	if !ok {
		t.Fatalf("expected BoolValue payload, got %T", auth.KeyParameter.Value)
	}
	if !bool(b) {
		t.Error("expected flag to surface as true")
	}
}
