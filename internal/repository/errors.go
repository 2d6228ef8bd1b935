package repository

import "errors"

// ErrNoRowsUpdated は更新・削除対象の行が存在しなかったことを示す。
// 対象レコードの不在と所有者不一致を区別せず同じエラーにする。
var ErrNoRowsUpdated = errors.New("no rows updated")
