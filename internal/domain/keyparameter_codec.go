package domain

import (
	"database/sql/driver"
	"fmt"

	"key-custody-service/internal/hsm"
)

// FromWire はワイヤ表現のパラメータをドメインの値へ変換する。タグが未知の
// 場合、またはペイロードがタグのペイロードクラスと一致しない場合はInvalidを
// 返す。エラーは返さない。
func FromWire(p hsm.KeyParameter) KeyParameterValue {
	class, ok := keyParameterClasses[p.Tag]
	if !ok {
		return Invalid()
	}
	switch v := p.Value.(type) {
	case hsm.BoolValue:
		// フラグは真の場合のみ存在を意味する。
		if class == classBool && bool(v) {
			return KeyParameterValue{tag: p.Tag}
		}
	case hsm.Integer:
		if class == classInteger {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.LongInteger:
		if class == classLongInteger {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.DateTime:
		if class == classDateTime {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.Blob:
		if class == classBlob {
			return KeyParameterValue{tag: p.Tag, blob: []byte(v)}
		}
	case hsm.Algorithm:
		if class == classAlgorithm {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.BlockMode:
		if class == classBlockMode {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.PaddingMode:
		if class == classPaddingMode {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.Digest:
		if class == classDigest {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.ECCurve:
		if class == classECCurve {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.KeyOrigin:
		if class == classOrigin {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.KeyPurpose:
		if class == classPurpose {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	case hsm.HardwareAuthenticatorType:
		if class == classAuthType {
			return KeyParameterValue{tag: p.Tag, num: int64(v)}
		}
	}
	return Invalid()
}

// ToWire はドメインの値をワイヤ表現へ変換する。フラグは真のブール値として、
// Invalidはゼロ値として送出する。
func (v KeyParameterValue) ToWire() hsm.KeyParameter {
	class := keyParameterClasses[v.tag]
	p := hsm.KeyParameter{Tag: v.tag}
	switch class {
	case classInvalid:
		p.Value = hsm.Invalid(0)
	case classBool:
		p.Value = hsm.BoolValue(true)
	case classInteger:
		p.Value = hsm.Integer(int32(v.num))
	case classLongInteger:
		p.Value = hsm.LongInteger(v.num)
	case classDateTime:
		p.Value = hsm.DateTime(v.num)
	case classBlob:
		b := v.blob
		if b == nil {
			b = []byte{}
		}
		p.Value = hsm.Blob(b)
	case classAlgorithm:
		p.Value = hsm.Algorithm(int32(v.num))
	case classBlockMode:
		p.Value = hsm.BlockMode(int32(v.num))
	case classPaddingMode:
		p.Value = hsm.PaddingMode(int32(v.num))
	case classDigest:
		p.Value = hsm.Digest(int32(v.num))
	case classECCurve:
		p.Value = hsm.ECCurve(int32(v.num))
	case classOrigin:
		p.Value = hsm.KeyOrigin(int32(v.num))
	case classPurpose:
		p.Value = hsm.KeyPurpose(int32(v.num))
	case classAuthType:
		p.Value = hsm.HardwareAuthenticatorType(int32(v.num))
	}
	return p
}

// NewFromSQL はストレージのタグとデータセルからドメインの値を復元する。
// 未知のタグはInvalidとして読み飛ばし、既知のタグのセルが復号できない場合は
// ErrValueCorruptedを返す。
func NewFromSQL(tag hsm.Tag, field *SQLField) (KeyParameterValue, error) {
	class, ok := keyParameterClasses[tag]
	if !ok {
		// 新しいバージョンが書いた行を古いバージョンが読んでも落ちないよう、
		// 未知のタグは不正値として保持する。
		return Invalid(), nil
	}
	switch class {
	case classInvalid:
		return Invalid(), nil
	case classBool:
		// フラグは行が存在すること自体が値でありセルは読まない。
		return KeyParameterValue{tag: tag}, nil
	case classLongInteger, classDateTime:
		n, err := field.Int64()
		if err != nil {
			return Invalid(), corruptedError(tag, err)
		}
		return KeyParameterValue{tag: tag, num: n}, nil
	case classBlob:
		b, err := field.Bytes()
		if err != nil {
			return Invalid(), corruptedError(tag, err)
		}
		return KeyParameterValue{tag: tag, blob: b}, nil
	default:
		n, err := field.Int32()
		if err != nil {
			return Invalid(), corruptedError(tag, err)
		}
		return KeyParameterValue{tag: tag, num: int64(n)}, nil
	}
}

func corruptedError(tag hsm.Tag, err error) error {
	return fmt.Errorf("failed to read sql data for tag %s: %w: %w", tag, ErrValueCorrupted, err)
}

// Value はドメインの値をストレージセルへ変換する。フラグとInvalidはNULLに
// なり、行の存在だけが残る。
func (v KeyParameterValue) Value() (driver.Value, error) {
	class, ok := keyParameterClasses[v.tag]
	if !ok {
		return nil, nil
	}
	switch class {
	case classInvalid, classBool:
		return nil, nil
	case classBlob:
		// 空のブロブはNULLと区別して書く。
		if v.blob == nil {
			return []byte{}, nil
		}
		return v.blob, nil
	default:
		return v.num, nil
	}
}

// NewFromPrimitive はタグと基本型の値からドメインの値を組み立てる。基本型の
// 種別がタグのペイロードクラスと合わない場合はErrTypeMismatchを、タグが
// 未知の場合はErrUnknownTagを返す。
func NewFromPrimitive(tag hsm.Tag, p Primitive) (KeyParameterValue, error) {
	class, ok := keyParameterClasses[tag]
	if !ok {
		return Invalid(), fmt.Errorf("tag %s: %w", tag, ErrUnknownTag)
	}
	switch class {
	case classInvalid, classBool:
		// フラグとInvalidは基本型の表現を持たない。
		return Invalid(), fmt.Errorf("tag %s: %w", tag, ErrTypeMismatch)
	case classLongInteger, classDateTime:
		v, ok := p.(PrimitiveInt64)
		if !ok {
			return Invalid(), fmt.Errorf("tag %s: %w", tag, ErrTypeMismatch)
		}
		return KeyParameterValue{tag: tag, num: int64(v)}, nil
	case classBlob:
		v, ok := p.(PrimitiveBytes)
		if !ok {
			return Invalid(), fmt.Errorf("tag %s: %w", tag, ErrTypeMismatch)
		}
		return KeyParameterValue{tag: tag, blob: []byte(v)}, nil
	default:
		v, ok := p.(PrimitiveInt32)
		if !ok {
			return Invalid(), fmt.Errorf("tag %s: %w", tag, ErrTypeMismatch)
		}
		return KeyParameterValue{tag: tag, num: int64(v)}, nil
	}
}

// ToPrimitive はドメインの値を基本型へ射影する。フラグとInvalidは基本型の
// 表現を持たないためfalseを返す。
func (v KeyParameterValue) ToPrimitive() (Primitive, bool) {
	class, ok := keyParameterClasses[v.tag]
	if !ok {
		return nil, false
	}
	switch class {
	case classInvalid, classBool:
		return nil, false
	case classLongInteger, classDateTime:
		return PrimitiveInt64(v.num), true
	case classBlob:
		return PrimitiveBytes(v.blob), true
	default:
		return PrimitiveInt32(int32(v.num)), true
	}
}
