package domain

import "errors"

var (
	// ErrKeyNotFound は指定されたエイリアスの鍵が存在しない場合のエラー。
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyAlreadyExists は指定されたエイリアスの鍵が既に存在する場合のエラー。
	ErrKeyAlreadyExists = errors.New("key already exists")

	// ErrKeyDisabled は指定された鍵が無効化されている場合のエラー。
	ErrKeyDisabled = errors.New("key is disabled")

	// ErrKeyAlreadyDisabled は指定された鍵が既に無効化されている場合のエラー。
	ErrKeyAlreadyDisabled = errors.New("key is already disabled")

	// ErrInvalidAlias はエイリアスの形式が不正な場合のエラー。
	ErrInvalidAlias = errors.New("invalid alias")

	// ErrInvalidParameter は鍵生成要求のパラメータが不正な場合のエラー。
	ErrInvalidParameter = errors.New("invalid key parameter")

	// ErrTypeMismatch はプリミティブ値の型がタグのペイロードクラスと
	// 一致しない場合のエラー。
	ErrTypeMismatch = errors.New("primitive type mismatch for tag")

	// ErrUnknownTag はパラメータ表に定義されていないタグを直接指定した
	// 場合のエラー。
	ErrUnknownTag = errors.New("unknown tag")

	// ErrValueCorrupted はストレージセルをタグのペイロードクラスとして
	// 復号できない場合のエラー。
	ErrValueCorrupted = errors.New("value corrupted")

	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrMigrationFileNotFound はマイグレーションファイルが見つからない場合のエラー。
	ErrMigrationFileNotFound = errors.New("migration file not found")

	// ErrInvalidMigrationFile はマイグレーションファイルのフォーマットが不正な場合のエラー。
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)
