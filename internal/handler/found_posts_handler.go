package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"LostFound-App/internal/domain/helper"
	"LostFound-App/internal/domain/model"
	"LostFound-App/internal/domain/repository"
	"LostFound-App/internal/usecase"
)

// FoundPostsHandler 拾得物投稿APIのハンドラー
type FoundPostsHandler struct {
	useCase    usecase.FoundPostUseCase
	obfuscator *helper.LocationObfuscator
	health     repository.HealthChecker
}

// NewFoundPostsHandler は新しいFoundPostsHandlerインスタンスを作成
// health が nil の場合（インメモリストア）はヘルスチェックを常に成功とする
func NewFoundPostsHandler(useCase usecase.FoundPostUseCase, obfuscator *helper.LocationObfuscator, health repository.HealthChecker) *FoundPostsHandler {
	return &FoundPostsHandler{
		useCase:    useCase,
		obfuscator: obfuscator,
		health:     health,
	}
}

// CreateFoundPost POST /found-posts - 投稿の作成
func (h *FoundPostsHandler) CreateFoundPost(c *gin.Context) {
	var req model.CreateFoundPostRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "リクエストの形式が正しくありません",
			"details": err.Error(),
		})
		return
	}

	post, err := h.useCase.CreatePost(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidPost) || errors.Is(err, model.ErrInvalidCoordinate) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "バリデーションエラー",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "投稿の作成に失敗しました",
			"details": err.Error(),
		})
		return
	}

	// 投稿者本人には正確な位置を返す
	c.JSON(http.StatusCreated, model.NewFoundPostResponse(post, *post.Location))
}

// GetFoundPost GET /found-posts/:id - 投稿の取得
func (h *FoundPostsHandler) GetFoundPost(c *gin.Context) {
	id := c.Param("id")

	post, err := h.useCase.GetPost(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "投稿が見つかりません",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "投稿の取得に失敗しました",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.toResponse(post))
}

// ListFoundPosts GET /found-posts?creator_id= - 投稿一覧（新しい順）
// creator_id を省略するとすべての投稿を返す
func (h *FoundPostsHandler) ListFoundPosts(c *gin.Context) {
	posts, err := h.useCase.ListPosts(c.Request.Context(), c.Query("creator_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "投稿一覧の取得に失敗しました",
			"details": err.Error(),
		})
		return
	}

	response := model.ListFoundPostsResponse{
		Posts: make([]model.FoundPostResponse, len(posts)),
		Count: len(posts),
	}
	for i := range posts {
		response.Posts[i] = h.toResponse(&posts[i])
	}
	c.JSON(http.StatusOK, response)
}

// SearchFoundPosts GET /found-posts/search?lat=&lng=&radius=&q=&category=&since=
// 一部のレンジクエリが失敗した場合も200で返し、complete=false と failed_ranges で知らせる
func (h *FoundPostsHandler) SearchFoundPosts(c *gin.Context) {
	query, err := parseSearchQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "バリデーションエラー",
			"details": err.Error(),
		})
		return
	}

	result, err := h.useCase.SearchPosts(c.Request.Context(), query)

	var partial *model.PartialSearchFailure
	switch {
	case err == nil:
	case errors.As(err, &partial) && !partial.AllFailed():
	case errors.As(err, &partial):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":         "検索に失敗しました。しばらくしてから再度お試しください",
			"details":       err.Error(),
			"failed_ranges": partial.FailedRanges(),
		})
		return
	case errors.Is(err, model.ErrInvalidCoordinate), errors.Is(err, model.ErrInvalidRadius), errors.Is(err, model.ErrRadiusTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "バリデーションエラー",
			"details": err.Error(),
		})
		return
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":   "検索がタイムアウトしました",
			"details": err.Error(),
		})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "検索に失敗しました",
			"details": err.Error(),
		})
		return
	}

	response := model.SearchFoundPostsResponse{
		Posts:        make([]model.FoundPostResponse, len(result.Posts)),
		Count:        len(result.Posts),
		Complete:     result.Complete,
		MalformedIDs: result.MalformedIDs,
	}
	for i := range result.Posts {
		post := &result.Posts[i]
		resp := h.toResponse(post)
		distance := h.obfuscator.DisplayDistance(post.DistanceFromQuery)
		resp.DistanceMeters = &distance
		response.Posts[i] = resp
	}
	if partial != nil {
		response.FailedRanges = partial.FailedRanges()
	}

	c.JSON(http.StatusOK, response)
}

// Health GET /api/health - ストアへの疎通を確認する
func (h *FoundPostsHandler) Health(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.health.HealthCheck(ctx); err != nil {
			log.Printf("❌ ヘルスチェック失敗: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "LostFound-App",
				"error":   "ストアに接続できません",
				"details": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "LostFound-App",
	})
}

func (h *FoundPostsHandler) toResponse(post *model.FoundPost) model.FoundPostResponse {
	var display model.GeoPoint
	if post.Location != nil {
		display = h.obfuscator.Obfuscate(*post.Location)
	}
	return model.NewFoundPostResponse(post, display)
}

func parseSearchQuery(c *gin.Context) (model.SearchQuery, error) {
	var query model.SearchQuery

	lat, err := requiredFloat(c, "lat")
	if err != nil {
		return query, err
	}
	lng, err := requiredFloat(c, "lng")
	if err != nil {
		return query, err
	}
	radius, err := requiredFloat(c, "radius")
	if err != nil {
		return query, err
	}

	query.Center = model.GeoPoint{Latitude: lat, Longitude: lng}
	query.RadiusMeters = radius
	query.NameSubstring = c.Query("q")
	query.Category = c.Query("category")

	if since := strings.TrimSpace(c.Query("since")); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return query, &ValidationError{Field: "since", Message: "RFC3339形式で指定してください"}
		}
		query.MinCreatedAt = &t
	}
	return query, nil
}

func requiredFloat(c *gin.Context, name string) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, &ValidationError{Field: name, Message: "必須パラメータです"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValidationError{Field: name, Message: "数値で指定してください"}
	}
	return v, nil
}

// ValidationError はバリデーションエラーを表す
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
