package utility

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// findProjectDir tìm thư mục gốc project (thư mục chứa config/env)
func findProjectDir() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "config", "env")); err == nil {
			return currentDir, nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", fmt.Errorf("không tìm thấy thư mục config/env")
		}
		currentDir = parentDir
	}
}

// ResolveCredentialsPath: đường dẫn tương đối được tính từ thư mục gốc project
func ResolveCredentialsPath(credentialsPath string) (string, error) {
	if credentialsPath == "" {
		return "", nil
	}
	if !filepath.IsAbs(credentialsPath) {
		dir, err := findProjectDir()
		if err != nil {
			return "", err
		}
		credentialsPath = filepath.Join(dir, credentialsPath)
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return "", fmt.Errorf("firebase credentials file not found: %s", credentialsPath)
	}
	return credentialsPath, nil
}

// InitFirebase khởi tạo Firebase Admin SDK.
// Không có credentialsPath thì dùng Application Default Credentials (Cloud Run, GKE).
func InitFirebase(ctx context.Context, projectID, credentialsPath string) (*firebase.App, error) {
	path, err := ResolveCredentialsPath(credentialsPath)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}
