// Package main seeds a storefront with an album built from a directory of images.
//
// It runs the same upload pipeline as the admin endpoint: originals are stored
// privately, watermarked display copies publicly, and the album becomes
// reachable through its access code.
//
// Usage:
//
//	STORAGE_PATH=~/.elephoto go run ./cmd/seed --code CASAMENTO01 --dir ./photos
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/elephoto/elephoto-server/internal/media/images"
	"github.com/elephoto/elephoto-server/internal/service"
	"github.com/elephoto/elephoto-server/internal/store/sqlite"
)

var (
	code = flag.String("code", "CASAMENTO01", "Access code of the album to create")
	dir  = flag.String("dir", "", "Directory holding the photos to upload")
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func main() {
	flag.Parse()

	if *dir == "" {
		log.Fatal("--dir is required")
	}

	basePath := os.Getenv("STORAGE_PATH")
	if basePath == "" {
		basePath = os.ExpandEnv("$HOME/.elephoto")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := sqlite.Open(filepath.Join(basePath, "elephoto.db"), logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	originals, err := images.NewStorage(basePath, "originals")
	if err != nil {
		log.Fatalf("Failed to open original storage: %v", err)
	}
	displays, err := images.NewStorage(basePath, "displays")
	if err != nil {
		log.Fatalf("Failed to open display storage: %v", err)
	}

	uploads, err := readDir(*dir)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *dir, err)
	}
	if len(uploads) == 0 {
		log.Fatalf("No images found in %s", *dir)
	}

	fmt.Printf("Uploading %d photos as %s...\n", len(uploads), strings.ToUpper(*code))

	albums := service.NewAlbumService(db, originals, displays,
		images.NewProcessor(images.DefaultProcessorOptions(), logger), logger)

	created, err := albums.CreateAlbum(context.Background(), *code, uploads)
	if err != nil {
		log.Fatalf("Failed to create album: %v", err)
	}

	fmt.Printf("Album %s created (%s)\n", created.Album.Code, created.Album.ID)
	for _, p := range created.Photos {
		fmt.Printf("  %s  %s\n", p.ID, p.DisplayKey)
	}
}

func readDir(path string) ([]service.Upload, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var uploads []service.Upload
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		//#nosec G304 -- files come from the directory the operator passed in
		data, err := os.ReadFile(filepath.Join(path, e.Name()))
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.Upload{Filename: e.Name(), Data: data})
	}
	return uploads, nil
}
