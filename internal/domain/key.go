// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "time"

// KeyStatus は保管鍵のステータスを表す。
type KeyStatus string

const (
	// KeyStatusActive は有効な鍵を表す。
	KeyStatusActive KeyStatus = "active"
	// KeyStatusDisabled は無効化された鍵を表す。
	KeyStatusDisabled KeyStatus = "disabled"
)

// KeyEntry は保管中の鍵エンティティを表す。鍵素材はKMSでラップした状態のみ
// 保持する。
type KeyEntry struct {
	ID          string
	Alias       string
	Status      KeyStatus
	WrappedBlob []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// KeyMetadata は保管鍵のメタデータを表す（鍵素材を含まない）。
type KeyMetadata struct {
	ID        string
	Alias     string
	Status    KeyStatus
	CreatedAt time.Time
}

// ReleasedKey はアンラップ済みの鍵素材を表す。
type ReleasedKey struct {
	Alias   string
	KeyBlob []byte // 平文の鍵素材
}
