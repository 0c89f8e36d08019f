package domain

import "key-custody-service/internal/hsm"

// Primitive は構造化シリアライズ境界で使う最小の交換表現。32ビット整数、
// 64ビット整数、バイト列の3ケースに閉じたユニオンで、このパッケージ内の
// 型だけが実装する。個々のペイロード型に依存せずパラメータ値を受け渡す
// 経路(デバッグ出力やAPIのJSON表現)のためにあり、ワイヤ変換・ストレージ
// 変換には使わない。
type Primitive interface {
	isPrimitive()
}

// PrimitiveInt32 は32ビット整数のプリミティブ。
type PrimitiveInt32 int32

// PrimitiveInt64 は64ビット整数のプリミティブ。
type PrimitiveInt64 int64

// PrimitiveBytes はバイト列のプリミティブ。
type PrimitiveBytes []byte

func (PrimitiveInt32) isPrimitive() {}
func (PrimitiveInt64) isPrimitive() {}
func (PrimitiveBytes) isPrimitive() {}

// PrimitiveKind はタグのペイロードが対応するプリミティブの種別。
type PrimitiveKind int

const (
	// PrimitiveKindNone はプリミティブ表現を持たないクラス(フラグ・Invalid)。
	PrimitiveKindNone PrimitiveKind = iota
	// PrimitiveKindInt32 は32ビット整数・列挙のクラス。
	PrimitiveKindInt32
	// PrimitiveKindInt64 は64ビット整数・日時のクラス。
	PrimitiveKindInt64
	// PrimitiveKindBytes はバイト列のクラス。
	PrimitiveKindBytes
)

// PrimitiveKindOf はタグのペイロードクラスに対応するプリミティブ種別を返す。
// 表にないタグは ok=false。
func PrimitiveKindOf(tag hsm.Tag) (PrimitiveKind, bool) {
	cls, ok := keyParameterClasses[tag]
	if !ok {
		return PrimitiveKindNone, false
	}
	switch cls {
	case classInvalid, classBool:
		return PrimitiveKindNone, true
	case classLongInteger, classDateTime:
		return PrimitiveKindInt64, true
	case classBlob:
		return PrimitiveKindBytes, true
	default:
		return PrimitiveKindInt32, true
	}
}
