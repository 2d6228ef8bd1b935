// Package cycle はライティングサイクルの純粋な時間計算を提供する。
// 副作用は持たず、サイクルカウンタの更新は呼び出し側の責務。
package cycle

import "time"

// CycleSeconds は1サイクルの長さ（秒）。7分40秒。
const CycleSeconds = 460

// Duration は1サイクルの長さをtime.Durationで返す。
const Duration = CycleSeconds * time.Second

// Remaining は現在サイクルの残り秒数を返す。
// 非アクティブまたは開始時刻が未設定の場合はサイクル全長（"ready"状態）を返す。
// アクティブな場合の戻り値は常に[1, CycleSeconds]の範囲に収まる。
func Remaining(now, startedAt time.Time, active bool) int {
	if !active || startedAt.IsZero() {
		return CycleSeconds
	}

	elapsed := int(now.Sub(startedAt) / time.Second)
	if elapsed < 0 {
		// 時計の巻き戻り。サイクル先頭として扱う。
		return CycleSeconds
	}

	return CycleSeconds - elapsed%CycleSeconds
}

// Number は開始時刻から現在までの経過時間が示すサイクル番号を返す。
// floor(経過秒 / CycleSeconds) + 1 で直接計算するため、
// 1秒粒度のサンプリングでサイクル境界を取りこぼしても突き合わせで自己修正できる。
// 開始時刻が未設定または未来の場合は1を返す。
func Number(now, startedAt time.Time) int {
	if startedAt.IsZero() {
		return 1
	}

	elapsed := int(now.Sub(startedAt) / time.Second)
	if elapsed < 0 {
		return 1
	}

	return elapsed/CycleSeconds + 1
}
