package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// SQLField は鍵パラメータ1行分のデータセルを保持するスキャン先。
// セルの実際の型はタグのペイロードクラスで決まるため、ドライバが返した
// 生の値をそのまま保持し、復号はタグと突き合わせる側で行う。SQLiteの
// 動的型とMySQLのBLOB列の両方から読めるよう、整数の取得は10進文字列
// 表現も受理する。
type SQLField struct {
	raw any
}

// NewSQLField は生のセル値からSQLFieldを作る。
func NewSQLField(raw any) SQLField {
	return SQLField{raw: raw}
}

// Scan は database/sql のスキャン実装。
func (f *SQLField) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		// ドライバがバッファを再利用するためコピーして保持する
		b := make([]byte, len(v))
		copy(b, v)
		f.raw = b
	default:
		f.raw = value
	}
	return nil
}

// Value は driver.Valuer 実装。保持している生の値をそのまま書き出す。
func (f SQLField) Value() (driver.Value, error) {
	switch v := f.raw.(type) {
	case nil:
		return nil, nil
	case int64, []byte, string:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported cell type %T", v)
	}
}

// Int32 はセルを32ビット整数として読む。
func (f SQLField) Int32() (int32, error) {
	n, err := f.Int64()
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("value %d out of int32 range", n)
	}
	return int32(n), nil
}

// Int64 はセルを64ビット整数として読む。
func (f SQLField) Int64() (int64, error) {
	switch v := f.raw.(type) {
	case int64:
		return v, nil
	case []byte:
		// MySQLのBLOB列は整数を10進文字列で返す
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cell is not an integer: %q", v)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cell is not an integer: %q", v)
		}
		return n, nil
	case nil:
		return 0, errors.New("cell is NULL")
	default:
		return 0, fmt.Errorf("unexpected cell type %T", v)
	}
}

// Bytes はセルをバイト列として読む。
func (f SQLField) Bytes() ([]byte, error) {
	switch v := f.raw.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case nil:
		return nil, errors.New("cell is NULL")
	default:
		return nil, fmt.Errorf("unexpected cell type %T", v)
	}
}
