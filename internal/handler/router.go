package handler

import "github.com/gin-gonic/gin"

// NewRouter APIのルーティングを設定したginエンジンを作成
func NewRouter(foundPosts *FoundPostsHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/api/health", foundPosts.Health)

	posts := r.Group("/found-posts")
	{
		posts.POST("", foundPosts.CreateFoundPost)
		posts.GET("", foundPosts.ListFoundPosts)
		posts.GET("/search", foundPosts.SearchFoundPosts)
		posts.GET("/:id", foundPosts.GetFoundPost)
	}
	return r
}
