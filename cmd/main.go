package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"LostFound-App/internal/config"
	"LostFound-App/internal/domain/geo"
	"LostFound-App/internal/domain/helper"
	domainrepo "LostFound-App/internal/domain/repository"
	"LostFound-App/internal/domain/service"
	"LostFound-App/internal/handler"
	"LostFound-App/internal/infrastructure/database"
	"LostFound-App/internal/infrastructure/firestore"
	"LostFound-App/internal/repository"
	"LostFound-App/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	log.Printf("🗄️ 投稿ストアを初期化中: %s", cfg.StoreBackend)
	repo, health, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("投稿ストアの初期化に失敗: %v", err)
	}
	defer closeStore()

	geocoder := geo.NewGeocoder(cfg.GeohashPrecision)
	planner := geo.NewPlanner(cfg.GeohashPrecision, cfg.SearchMaxCells)
	searcher := service.NewSearchOrchestrator(planner, repo, service.SearchOptions{
		RangeTimeout:   cfg.SearchRangeTimeout,
		MaxAttempts:    cfg.SearchMaxAttempts,
		RetryBackoff:   cfg.SearchRetryBackoff,
		MaxConcurrency: cfg.SearchMaxConcurrency,
	})
	foundPostUseCase := usecase.NewFoundPostUseCase(repo, geocoder, searcher)
	foundPostsHandler := handler.NewFoundPostsHandler(foundPostUseCase, helper.NewLocationObfuscator(cfg.PrivacyFuzzDegrees), health)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(foundPostsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 LostFound-App server starting on :%s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("サーバーの起動に失敗: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 シャットダウン中...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ シャットダウンに失敗: %v", err)
	}
}

// openStore 設定に応じた投稿ストアとヘルスチェックを作成する。戻り値の関数で接続を閉じる
// インメモリストアはヘルスチェックなし（nil）
func openStore(ctx context.Context, cfg *config.Config) (domainrepo.FoundPostsRepository, domainrepo.HealthChecker, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Println("⚠️ インメモリストアを使用します（再起動でデータは消えます）")
		return repository.NewMemoryFoundPostsRepository(), nil, noop, nil

	case config.BackendFirestore:
		client, err := firestore.NewFirestoreClient(ctx, cfg.FirestoreProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewFirestoreFoundPostsRepository(client.GetClient()), client, closer(client.Close), nil

	case config.BackendPostgres:
		client, err := database.NewPostgreSQLClient(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := repository.NewSQLFoundPostsRepository(client.DB, repository.DialectPostgres)
		if err := repo.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		return repo, client, closer(client.Close), nil

	case config.BackendSQLite:
		client, err := database.NewSQLiteClient(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := repository.NewSQLFoundPostsRepository(client.DB, repository.DialectSQLite)
		if err := repo.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		return repo, client, closer(client.Close), nil

	case config.BackendSupabase:
		client, err := database.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := repository.NewSupabaseFoundPostsRepository(client)
		health := repo.(domainrepo.HealthChecker)
		if err := health.HealthCheck(ctx); err != nil {
			log.Printf("⚠️ Supabaseヘルスチェック失敗（起動は継続）: %v", err)
		}
		return repo, health, noop, nil
	}

	return nil, nil, nil, fmt.Errorf("未対応の STORE_BACKEND です: %q", cfg.StoreBackend)
}

func closer(closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			log.Printf("⚠️ 接続のクローズに失敗: %v", err)
		}
	}
}
