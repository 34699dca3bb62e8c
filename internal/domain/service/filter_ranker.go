package service

import (
	"sort"
	"strings"

	"LostFound-App/internal/domain/geo"
	"LostFound-App/internal/domain/model"
)

// RankedPosts フィルタ・並べ替え後の候補
type RankedPosts struct {
	Posts        []model.FoundPost
	MalformedIDs []string
}

// FilterAndRank レンジクエリで得た候補を実距離と属性で絞り込み、距離の近い順に並べる
//
// 並び順: 距離の昇順 → 作成日時の新しい順 → IDの昇順。
// 位置情報やIDを持たない不正レコードは除外し、IDを MalformedIDs に1回だけ記録する。
// IDのないレコードはGeoKeyで識別する。
// 入力スライスは変更しない。
func FilterAndRank(candidates []model.FoundPost, query model.SearchQuery) RankedPosts {
	nameNeedle := strings.ToLower(query.NameSubstring)
	category := strings.ToLower(query.Category)

	ranked := RankedPosts{Posts: make([]model.FoundPost, 0, len(candidates))}
	reported := make(map[string]struct{})
	for _, c := range candidates {
		if c.IsMalformed() {
			id := malformedID(c)
			if _, dup := reported[id]; !dup {
				reported[id] = struct{}{}
				ranked.MalformedIDs = append(ranked.MalformedIDs, id)
			}
			continue
		}

		distance := geo.DistanceMeters(query.Center, *c.Location)
		if distance > query.RadiusMeters {
			continue
		}
		if nameNeedle != "" && !strings.Contains(lowerOr(c.NameLower, c.Name), nameNeedle) {
			continue
		}
		if query.HasCategory() && lowerOr(c.CategoryLower, c.Category) != category {
			continue
		}
		if query.MinCreatedAt != nil && c.CreatedAt.Before(*query.MinCreatedAt) {
			continue
		}

		c.DistanceFromQuery = distance
		ranked.Posts = append(ranked.Posts, c)
	}

	sort.SliceStable(ranked.Posts, func(i, j int) bool {
		a, b := ranked.Posts[i], ranked.Posts[j]
		if a.DistanceFromQuery != b.DistanceFromQuery {
			return a.DistanceFromQuery < b.DistanceFromQuery
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return ranked
}

// 古い投稿は小文字フィールドを持たないことがある
func lowerOr(lower, original string) string {
	if lower != "" {
		return lower
	}
	return strings.ToLower(original)
}

func malformedID(p model.FoundPost) string {
	switch {
	case p.ID != "":
		return p.ID
	case p.GeoKey != "":
		return "(idなし geohash=" + p.GeoKey + ")"
	default:
		return "(idなし)"
	}
}
