package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinate 緯度経度が範囲外またはNaN
	ErrInvalidCoordinate = errors.New("不正な座標です")
	// ErrInvalidRadius 検索半径が0以下または有限でない
	ErrInvalidRadius = errors.New("不正な検索半径です")
	// ErrRadiusTooLarge 検索半径が地球の半周を超えている
	ErrRadiusTooLarge = errors.New("検索半径が大きすぎます。範囲を狭めて再検索してください")
	// ErrPostNotFound 投稿が存在しない
	ErrPostNotFound = errors.New("投稿が見つかりません")
	// ErrInvalidPost 投稿の必須項目が不足している
	ErrInvalidPost = errors.New("投稿の内容が不正です")
)

// RangeQueryError 1つのレンジクエリの失敗（リトライ後）
type RangeQueryError struct {
	Range    BoundingBoxRange
	Attempts int
	Err      error
}

func (e *RangeQueryError) Error() string {
	return fmt.Sprintf("レンジクエリ [%s, %s] が%d回の試行後に失敗: %v", e.Range.StartKey, e.Range.EndKey, e.Attempts, e.Err)
}

func (e *RangeQueryError) Unwrap() error {
	return e.Err
}

// PartialSearchFailure 一部のレンジクエリが失敗した検索結果
// Result には成功したレンジの結果のみが含まれる
type PartialSearchFailure struct {
	Result   *SearchResult
	Failures []*RangeQueryError
}

func (e *PartialSearchFailure) Error() string {
	total := 0
	if e.Result != nil {
		total = len(e.Result.Ranges)
	}
	return fmt.Sprintf("検索結果が不完全です: %d/%dレンジのクエリに失敗", len(e.Failures), total)
}

func (e *PartialSearchFailure) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// FailedRanges 失敗したレンジの一覧を返す
func (e *PartialSearchFailure) FailedRanges() []BoundingBoxRange {
	ranges := make([]BoundingBoxRange, len(e.Failures))
	for i, f := range e.Failures {
		ranges[i] = f.Range
	}
	return ranges
}

// AllFailed すべてのレンジが失敗したかを判定する
func (e *PartialSearchFailure) AllFailed() bool {
	return e.Result != nil && len(e.Failures) == len(e.Result.Ranges)
}
