package hsm

// KeyParameterValue はセキュアモジュールと交換するパラメータ値のユニオン。
// 取りうるケースはペイロードクラスごとに1つの閉集合で、このパッケージ内の
// 型だけが実装する。
type KeyParameterValue interface {
	isKeyParameterValue()
}

// Invalid は不明・不正なパラメータを示すゼロ値ペイロード。
type Invalid int32

// BoolValue は真偽値ペイロード。フラグ系タグはワイヤ上で true を運ぶ。
type BoolValue bool

// Integer は32ビット整数ペイロード。
type Integer int32

// LongInteger は64ビット整数ペイロード。
type LongInteger int64

// DateTime はエポックミリ秒で表す日時ペイロード。
type DateTime int64

// Blob はバイト列ペイロード。
type Blob []byte

func (Invalid) isKeyParameterValue()                   {}
func (BoolValue) isKeyParameterValue()                 {}
func (Integer) isKeyParameterValue()                   {}
func (LongInteger) isKeyParameterValue()               {}
func (DateTime) isKeyParameterValue()                  {}
func (Blob) isKeyParameterValue()                      {}
func (Algorithm) isKeyParameterValue()                 {}
func (BlockMode) isKeyParameterValue()                 {}
func (PaddingMode) isKeyParameterValue()               {}
func (Digest) isKeyParameterValue()                    {}
func (ECCurve) isKeyParameterValue()                   {}
func (KeyOrigin) isKeyParameterValue()                 {}
func (KeyPurpose) isKeyParameterValue()                {}
func (HardwareAuthenticatorType) isKeyParameterValue() {}

// KeyParameter はタグと値ペイロードの組で1つの鍵パラメータを表す
// ワイヤ形式のレコード。
type KeyParameter struct {
	Tag   Tag
	Value KeyParameterValue
}

// KeyCharacteristics は1つのセキュリティレベルが保証するパラメータ群。
type KeyCharacteristics struct {
	SecurityLevel SecurityLevel
	Parameters    []KeyParameter
}

// GeneratedKey は鍵生成の結果。鍵素材は不透明なブロブとして返され、
// 特性はセキュリティレベルごとのブロックに分かれる。
type GeneratedKey struct {
	KeyBlob         []byte
	Characteristics []KeyCharacteristics
}
