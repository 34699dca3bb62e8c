package model

import "time"

// BoundingBoxRange GeoKeyの辞書順区間（両端を含む）
type BoundingBoxRange struct {
	StartKey string `json:"start_key"`
	EndKey   string `json:"end_key"`
}

// Contains キーが区間に含まれるかを判定する
func (r BoundingBoxRange) Contains(key string) bool {
	return key >= r.StartKey && key <= r.EndKey
}

// SearchQuery 周辺検索の条件
type SearchQuery struct {
	Center        GeoPoint
	RadiusMeters  float64
	NameSubstring string     // 空文字列はすべてにマッチ
	Category      string     // 空文字列はフィルタなし
	MinCreatedAt  *time.Time // nilはフィルタなし
}

// HasCategory カテゴリフィルタが指定されているかを判定する
func (q *SearchQuery) HasCategory() bool {
	return q.Category != ""
}

// SearchResult 周辺検索の結果
type SearchResult struct {
	Posts        []FoundPost        // 距離の昇順
	Ranges       []BoundingBoxRange // 実行したレンジクエリ
	MalformedIDs []string           // スキップした不正レコード
	Complete     bool               // すべてのレンジクエリが成功した場合のみtrue
}
