package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 投稿ストアの種類
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendSupabase  = "supabase"
)

// Config サーバーとCLIの設定
type Config struct {
	Port         string
	StoreBackend string

	FirestoreProjectID string
	CredentialsFile    string
	DatabaseURL        string
	SQLitePath         string
	SupabaseURL        string
	SupabaseAnonKey    string

	GeohashPrecision     int
	SearchMaxCells       int
	SearchRangeTimeout   time.Duration
	SearchMaxAttempts    int
	SearchRetryBackoff   time.Duration
	SearchMaxConcurrency int

	PrivacyFuzzDegrees float64
}

// Load .envファイルと環境変数から設定を読み込む
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .envファイルが見つかりません。システムの環境変数を使用します")
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup 任意の参照関数から設定を読み込む
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}

	cfg := &Config{
		Port:                 r.str("PORT", "8080"),
		StoreBackend:         strings.ToLower(r.str("STORE_BACKEND", BackendMemory)),
		FirestoreProjectID:   r.str("FIRESTORE_PROJECT_ID", ""),
		CredentialsFile:      r.str("GOOGLE_APPLICATION_CREDENTIALS", ""),
		DatabaseURL:          r.str("DATABASE_URL", ""),
		SQLitePath:           r.str("SQLITE_PATH", "found_posts.db"),
		SupabaseURL:          r.str("SUPABASE_URL", ""),
		SupabaseAnonKey:      r.str("SUPABASE_ANON_KEY", ""),
		GeohashPrecision:     r.integer("GEOHASH_PRECISION", 10),
		SearchMaxCells:       r.integer("SEARCH_MAX_CELLS", 9),
		SearchRangeTimeout:   r.duration("SEARCH_RANGE_TIMEOUT", 5*time.Second),
		SearchMaxAttempts:    r.integer("SEARCH_MAX_ATTEMPTS", 3),
		SearchRetryBackoff:   r.duration("SEARCH_RETRY_BACKOFF", 200*time.Millisecond),
		SearchMaxConcurrency: r.integer("SEARCH_MAX_CONCURRENCY", 9),
		PrivacyFuzzDegrees:   r.float("PRIVACY_FUZZ_DEGREES", 0.001),
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 値の範囲とストアごとの必須項目をチェック
func (c *Config) Validate() error {
	switch {
	case c.GeohashPrecision < 1 || c.GeohashPrecision > 12:
		return fmt.Errorf("GEOHASH_PRECISION は1〜12で指定してください: %d", c.GeohashPrecision)
	case c.SearchMaxCells < 1:
		return fmt.Errorf("SEARCH_MAX_CELLS は1以上で指定してください: %d", c.SearchMaxCells)
	case c.SearchRangeTimeout <= 0:
		return fmt.Errorf("SEARCH_RANGE_TIMEOUT は正の値で指定してください: %s", c.SearchRangeTimeout)
	case c.SearchMaxAttempts < 1:
		return fmt.Errorf("SEARCH_MAX_ATTEMPTS は1以上で指定してください: %d", c.SearchMaxAttempts)
	case c.SearchRetryBackoff < 0:
		return fmt.Errorf("SEARCH_RETRY_BACKOFF は0以上で指定してください: %s", c.SearchRetryBackoff)
	case c.SearchMaxConcurrency < 1:
		return fmt.Errorf("SEARCH_MAX_CONCURRENCY は1以上で指定してください: %d", c.SearchMaxConcurrency)
	case c.PrivacyFuzzDegrees < 0 || c.PrivacyFuzzDegrees > 1:
		return fmt.Errorf("PRIVACY_FUZZ_DEGREES は0〜1で指定してください: %g", c.PrivacyFuzzDegrees)
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("STORE_BACKEND=firestore には FIRESTORE_PROJECT_ID が必要です")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_BACKEND=postgres には DATABASE_URL が必要です")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("STORE_BACKEND=sqlite には SQLITE_PATH が必要です")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("STORE_BACKEND=supabase には SUPABASE_URL と SUPABASE_ANON_KEY が必要です")
		}
	default:
		return fmt.Errorf("未対応の STORE_BACKEND です: %q", c.StoreBackend)
	}
	return nil
}

// reader 最初のパースエラーを保持する
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = fmt.Errorf("有限の数値ではありません")
	}
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r *reader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("環境変数 %s の値が不正です (%q): %w", key, value, err)
	}
}
