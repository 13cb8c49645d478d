// Command upload-diagrams seeds the diagram template bucket from a local
// directory of PNG files. File names become asset-type keys, so
// check_valve.png lands at templates/check_valve.png.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/config"
	"tes/survey-portal/survey-portal-backend/pkg/storage"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	_ = godotenv.Load()

	var (
		dir        = flag.String("dir", "diagrams", "directory of PNG templates to upload")
		configPath = flag.String("config", "config.json", "path to config file")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	client, err := storage.NewS3Client(ctx, storage.S3Options{
		Region:       cfg.Storage.Region,
		Endpoint:     cfg.Storage.Endpoint,
		AccessKey:    cfg.Storage.AccessKey,
		SecretKey:    cfg.Storage.SecretKey,
		UsePathStyle: cfg.Storage.UsePathStyle,
	})
	if err != nil {
		logger.Fatal("Failed to create storage client", zap.Error(err))
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Fatal("Failed to read template directory", zap.String("dir", *dir), zap.Error(err))
	}

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}

		path := filepath.Join(*dir, entry.Name())
		file, err := os.Open(path)
		if err != nil {
			logger.Error("Failed to open template", zap.String("path", path), zap.Error(err))
			continue
		}

		key := "templates/" + entry.Name()
		err = client.Upload(ctx, cfg.Storage.Bucket, key, file)
		file.Close()
		if err != nil {
			logger.Error("Failed to upload template", zap.String("key", key), zap.Error(err))
			continue
		}

		logger.Info("Uploaded template", zap.String("key", key))
		uploaded++
	}

	logger.Info("Upload complete", zap.Int("uploaded", uploaded), zap.String("bucket", cfg.Storage.Bucket))
}
