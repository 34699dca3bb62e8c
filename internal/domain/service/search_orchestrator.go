package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"LostFound-App/internal/domain/model"
)

// RangePlanner 検索円をレンジクエリに分解する
type RangePlanner interface {
	Plan(center model.GeoPoint, radiusMeters float64) ([]model.BoundingBoxRange, error)
}

// RangeQuerier GeoKeyのレンジで投稿を取得するストア
// 返す投稿はGeoKeyの昇順で、区間の両端を含む
type RangeQuerier interface {
	RangeQuery(ctx context.Context, r model.BoundingBoxRange) ([]model.FoundPost, error)
}

// SearchOptions レンジクエリの並行実行とリトライの設定
type SearchOptions struct {
	RangeTimeout   time.Duration // 1回の試行のタイムアウト
	MaxAttempts    int           // 1レンジあたりの最大試行回数
	RetryBackoff   time.Duration // 初回リトライまでの待ち時間（以降は倍々）
	MaxConcurrency int           // 同時に実行するレンジクエリ数
}

// DefaultSearchOptions デフォルト設定
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		RangeTimeout:   5 * time.Second,
		MaxAttempts:    3,
		RetryBackoff:   200 * time.Millisecond,
		MaxConcurrency: 9,
	}
}

func (o SearchOptions) withDefaults() SearchOptions {
	d := DefaultSearchOptions()
	if o.RangeTimeout <= 0 {
		o.RangeTimeout = d.RangeTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.RetryBackoff < 0 {
		o.RetryBackoff = d.RetryBackoff
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = d.MaxConcurrency
	}
	return o
}

// SearchOrchestrator 周辺検索の実行（レンジ計画 → 並行クエリ → 重複排除 → フィルタ・並べ替え）
type SearchOrchestrator interface {
	// Search 一部のレンジが失敗した場合は、成功分の結果と *model.PartialSearchFailure を両方返す
	Search(ctx context.Context, query model.SearchQuery) (*model.SearchResult, error)
}

type searchOrchestrator struct {
	planner RangePlanner
	store   RangeQuerier
	options SearchOptions
}

// NewSearchOrchestrator ストアを注入してSearchOrchestratorを作成
func NewSearchOrchestrator(planner RangePlanner, store RangeQuerier, options SearchOptions) SearchOrchestrator {
	return &searchOrchestrator{
		planner: planner,
		store:   store,
		options: options.withDefaults(),
	}
}

// rangeOutcome 1レンジ分のクエリ結果
type rangeOutcome struct {
	index int
	posts []model.FoundPost
	err   *model.RangeQueryError
}

func (s *searchOrchestrator) Search(ctx context.Context, query model.SearchQuery) (*model.SearchResult, error) {
	ranges, err := s.planner.Plan(query.Center, query.RadiusMeters)
	if err != nil {
		return nil, err
	}

	log.Printf("🔍 周辺検索開始: (%.6f, %.6f) 半径%.0fm, %dレンジ", query.Center.Latitude, query.Center.Longitude, query.RadiusMeters, len(ranges))
	start := time.Now()

	// セマフォで同時実行数を制限。結果チャンネルはレンジ数分バッファし、
	// 呼び出し元が先に戻ってもgoroutineがブロックしないようにする
	semaphore := make(chan struct{}, s.options.MaxConcurrency)
	results := make(chan rangeOutcome, len(ranges))
	var wg sync.WaitGroup

	for i, r := range ranges {
		wg.Add(1)
		go func(index int, r model.BoundingBoxRange) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				results <- rangeOutcome{index: index, err: &model.RangeQueryError{Range: r, Err: ctx.Err()}}
				return
			}
			defer func() { <-semaphore }()

			posts, qerr := s.queryWithRetry(ctx, r)
			results <- rangeOutcome{index: index, posts: posts, err: qerr}
		}(i, r)
	}

	outcomes := make([]rangeOutcome, 0, len(ranges))
	for len(outcomes) < len(ranges) {
		select {
		case <-ctx.Done():
			log.Printf("⛔ 周辺検索を中断: %v", ctx.Err())
			return nil, ctx.Err()
		case out := <-results:
			outcomes = append(outcomes, out)
		}
	}
	if err := ctx.Err(); err != nil {
		log.Printf("⛔ 周辺検索を中断: %v", err)
		return nil, err
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].index < outcomes[j].index
	})

	var failures []*model.RangeQueryError
	var candidates []model.FoundPost
	seen := make(map[string]struct{})
	for _, out := range outcomes {
		if out.err != nil {
			failures = append(failures, out.err)
			log.Printf("⚠️  レンジクエリ失敗: %v", out.err)
			continue
		}
		for _, p := range out.posts {
			// 隣接するレンジの境界で同じ投稿が返ることがある
			if key := dedupeKey(p); key != "" {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			candidates = append(candidates, p)
		}
	}

	ranked := FilterAndRank(candidates, query)
	result := &model.SearchResult{
		Posts:        ranked.Posts,
		Ranges:       ranges,
		MalformedIDs: ranked.MalformedIDs,
		Complete:     len(failures) == 0,
	}
	if len(ranked.MalformedIDs) > 0 {
		log.Printf("⚠️  不正なレコードを%d件スキップ: %v", len(ranked.MalformedIDs), ranked.MalformedIDs)
	}

	log.Printf("✅ 周辺検索完了: %v (候補:%d, ヒット:%d, 失敗レンジ:%d)", time.Since(start), len(candidates), len(result.Posts), len(failures))

	if len(failures) > 0 {
		return result, &model.PartialSearchFailure{Result: result, Failures: failures}
	}
	return result, nil
}

// dedupeKey IDがなければGeoKeyで同一レコードとみなす
func dedupeKey(p model.FoundPost) string {
	if p.ID != "" {
		return "id:" + p.ID
	}
	if p.GeoKey != "" {
		return "geohash:" + p.GeoKey
	}
	return ""
}

// queryWithRetry タイムアウト付きでレンジクエリを実行し、失敗したら指数バックオフで再試行する
func (s *searchOrchestrator) queryWithRetry(ctx context.Context, r model.BoundingBoxRange) ([]model.FoundPost, *model.RangeQueryError) {
	backoff := s.options.RetryBackoff
	for attempt := 1; ; attempt++ {
		posts, err := s.queryOnce(ctx, r)
		if err == nil {
			return posts, nil
		}
		if ctx.Err() != nil || attempt >= s.options.MaxAttempts {
			return nil, &model.RangeQueryError{Range: r, Attempts: attempt, Err: err}
		}

		log.Printf("🔄 レンジクエリ [%s, %s] を再試行 (%d/%d): %v", r.StartKey, r.EndKey, attempt+1, s.options.MaxAttempts, err)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &model.RangeQueryError{Range: r, Attempts: attempt, Err: ctx.Err()}
		case <-timer.C:
		}
		backoff *= 2
	}
}

// queryOnce ストアがコンテキストを無視しても、タイムアウトで打ち切る
func (s *searchOrchestrator) queryOnce(ctx context.Context, r model.BoundingBoxRange) ([]model.FoundPost, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.options.RangeTimeout)
	defer cancel()

	type reply struct {
		posts []model.FoundPost
		err   error
	}
	replies := make(chan reply, 1)
	go func() {
		posts, err := s.store.RangeQuery(attemptCtx, r)
		replies <- reply{posts: posts, err: err}
	}()

	select {
	case <-attemptCtx.Done():
		return nil, fmt.Errorf("レンジクエリがタイムアウトしました: %w", attemptCtx.Err())
	case rep := <-replies:
		return rep.posts, rep.err
	}
}
