package firestore

import (
	"context"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type FirestoreClient struct {
	client *firestore.Client
}

// NewFirestoreClient Firestoreクライアントを作成
// credentialsFile が存在すればそれを使い、なければデフォルト認証（Cloud Run / エミュレータ）を使う
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*FirestoreClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("FIRESTORE_PROJECT_ID環境変数が設定されていません")
	}

	var opts []option.ClientOption
	switch {
	case os.Getenv("FIRESTORE_EMULATOR_HOST") != "":
		log.Printf("🧪 Firestoreエミュレータを使用: %s", os.Getenv("FIRESTORE_EMULATOR_HOST"))
	case os.Getenv("K_SERVICE") != "":
		log.Printf("☁️ Cloud Run環境: デフォルト認証を使用")
	case credentialsFile != "":
		if _, err := os.Stat(credentialsFile); err != nil {
			log.Printf("⚠️ Credentials file not found: %s, trying with default authentication", credentialsFile)
		} else {
			log.Printf("📄 Using credentials file: %s", credentialsFile)
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	log.Printf("✅ Firestore client initialized for project: %s", projectID)
	return &FirestoreClient{client: client}, nil
}

func (fc *FirestoreClient) Close() error {
	return fc.client.Close()
}

func (fc *FirestoreClient) GetClient() *firestore.Client {
	return fc.client
}

// HealthCheck ルートコレクションを1件読んで疎通を確認する
func (fc *FirestoreClient) HealthCheck(ctx context.Context) error {
	if fc.client == nil {
		return fmt.Errorf("Firestoreクライアントが初期化されていません")
	}
	if _, err := fc.client.Collections(ctx).Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("Firestoreヘルスチェック失敗: %w", err)
	}
	return nil
}
