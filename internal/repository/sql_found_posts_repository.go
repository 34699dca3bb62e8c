package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"LostFound-App/internal/domain/model"
)

// SQLDialect SQLの方言（プレースホルダとDDLが異なる）
type SQLDialect int

const (
	DialectPostgres SQLDialect = iota
	DialectSQLite
)

func (d SQLDialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind "?" プレースホルダを方言に合わせて書き換える
func (d SQLDialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// geohash列はバイト順で比較する必要がある（"~" を英数字より後ろに並べるため）
func (d SQLDialect) schema() []string {
	geohashColumn := "geohash TEXT NOT NULL"
	createdAtColumn := "created_at INTEGER NOT NULL"
	if d == DialectPostgres {
		geohashColumn = `geohash TEXT COLLATE "C" NOT NULL`
		createdAtColumn = "created_at BIGINT NOT NULL"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS found_posts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			name_lower TEXT NOT NULL,
			category TEXT NOT NULL,
			category_lower TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			additional_info TEXT NOT NULL DEFAULT '',
			photos TEXT NOT NULL DEFAULT '[]',
			creator_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			location TEXT,
			` + geohashColumn + `,
			` + createdAtColumn + `
		)`,
		`CREATE INDEX IF NOT EXISTS found_posts_geohash_idx ON found_posts (geohash)`,
		`CREATE INDEX IF NOT EXISTS found_posts_creator_idx ON found_posts (creator_id, created_at)`,
	}
}

const foundPostColumns = `id, name, name_lower, category, category_lower, description, additional_info,
	photos, creator_id, status, location, geohash, created_at`

// SQLFoundPostsRepository PostgreSQL / SQLite 共通の投稿リポジトリ
// 位置はWKT、作成日時はUnixミリ秒で保存する
type SQLFoundPostsRepository struct {
	db      *sql.DB
	dialect SQLDialect
}

// NewSQLFoundPostsRepository 新しいSQLFoundPostsRepositoryインスタンスを作成
func NewSQLFoundPostsRepository(db *sql.DB, dialect SQLDialect) *SQLFoundPostsRepository {
	return &SQLFoundPostsRepository{
		db:      db,
		dialect: dialect,
	}
}

// EnsureSchema テーブルとGeoKeyインデックスを作成する
func (r *SQLFoundPostsRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range r.dialect.schema() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("スキーマの作成に失敗 (%s): %w", r.dialect, err)
		}
	}
	log.Printf("✅ found_posts スキーマ確認完了 (%s)", r.dialect)
	return nil
}

func (r *SQLFoundPostsRepository) RangeQuery(ctx context.Context, br model.BoundingBoxRange) ([]model.FoundPost, error) {
	query := r.dialect.rebind(`SELECT ` + foundPostColumns + `
		FROM found_posts
		WHERE geohash >= ? AND geohash <= ?
		ORDER BY geohash, id`)

	rows, err := r.db.QueryContext(ctx, query, br.StartKey, br.EndKey)
	if err != nil {
		return nil, fmt.Errorf("レンジクエリの実行に失敗 [%s, %s]: %w", br.StartKey, br.EndKey, err)
	}
	defer rows.Close()

	posts, err := scanFoundPosts(rows)
	if err != nil {
		return nil, fmt.Errorf("レンジクエリの結果読み込みに失敗: %w", err)
	}
	return posts, nil
}

func (r *SQLFoundPostsRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.FoundPost, error) {
	query := `SELECT ` + foundPostColumns + ` FROM found_posts`
	var args []any
	if creatorID != "" {
		query += ` WHERE creator_id = ?`
		args = append(args, creatorID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	posts, err := scanFoundPosts(rows)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の読み込みに失敗: %w", err)
	}
	return posts, nil
}

func (r *SQLFoundPostsRepository) Create(ctx context.Context, post *model.FoundPost) error {
	photos, err := json.Marshal(nonNilPhotos(post.Photos))
	if err != nil {
		return fmt.Errorf("写真リストのJSONマーシャル失敗: %w", err)
	}

	var location sql.NullString
	if post.Location != nil {
		location = sql.NullString{String: LocationToWKT(post.Location), Valid: true}
	}

	query := r.dialect.rebind(`INSERT INTO found_posts (` + foundPostColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		post.ID,
		post.Name,
		post.NameLower,
		post.Category,
		post.CategoryLower,
		post.Description,
		post.AdditionalInfo,
		string(photos),
		post.CreatorID,
		post.Status,
		location,
		post.GeoKey,
		post.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("投稿の保存に失敗: %w", err)
	}
	return nil
}

func (r *SQLFoundPostsRepository) GetByID(ctx context.Context, id string) (*model.FoundPost, error) {
	query := r.dialect.rebind(`SELECT ` + foundPostColumns + ` FROM found_posts WHERE id = ?`)

	post, err := scanFoundPost(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrPostNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func scanFoundPosts(rows *sql.Rows) ([]model.FoundPost, error) {
	posts := make([]model.FoundPost, 0)
	for rows.Next() {
		post, err := scanFoundPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFoundPost(row rowScanner) (model.FoundPost, error) {
	var (
		post      model.FoundPost
		photos    string
		location  sql.NullString
		createdAt int64
	)
	err := row.Scan(
		&post.ID,
		&post.Name,
		&post.NameLower,
		&post.Category,
		&post.CategoryLower,
		&post.Description,
		&post.AdditionalInfo,
		&photos,
		&post.CreatorID,
		&post.Status,
		&location,
		&post.GeoKey,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return post, err
	}
	if err != nil {
		return post, fmt.Errorf("投稿の読み込みに失敗: %w", err)
	}

	if err := json.Unmarshal([]byte(photos), &post.Photos); err != nil {
		log.Printf("⚠️  投稿 %s の写真リストを読み込めません: %v", post.ID, err)
	}
	// 位置が読めないレコードは Location=nil のまま返し、検索側で不正レコードとして除外する
	if location.Valid {
		loc, err := WKTToLocation(location.String)
		if err != nil {
			log.Printf("⚠️  投稿 %s の位置情報を読み込めません: %v", post.ID, err)
		} else {
			post.Location = loc
		}
	}
	post.CreatedAt = time.UnixMilli(createdAt).UTC()
	return post, nil
}

func nonNilPhotos(photos []string) []string {
	if photos == nil {
		return []string{}
	}
	return photos
}
