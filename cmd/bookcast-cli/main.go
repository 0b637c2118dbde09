package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bookcast/internal/adapters/downloader"
	"bookcast/internal/adapters/ffmpeg"
	"bookcast/internal/adapters/gdrive"
	"bookcast/internal/adapters/localstorage"
	"bookcast/internal/adapters/openai"
	"bookcast/internal/adapters/publish"
	"bookcast/internal/adapters/youtube"
	"bookcast/internal/auth"
	"bookcast/internal/core/domain"
	"bookcast/internal/core/ports"
	"bookcast/internal/service"
)

// Distinct exit codes per failing stage, so callers can tell where a run
// stopped without parsing logs.
func exitCode(stage domain.Stage) int {
	switch stage {
	case domain.StageGenerating:
		return 10
	case domain.StageSynthesizing:
		return 11
	case domain.StageImaging:
		return 12
	case domain.StageTranscribing:
		return 13
	case domain.StageComposing:
		return 14
	case domain.StagePublishing:
		return 15
	default:
		return 1
	}
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, environment variables might be set manually
		log.Println("No .env file found")
	}

	topic := flag.String("topic", "", "Book title to summarize and publish")
	booksFile := flag.String("books-file", "", "Path to a books list; the first unprocessed title is used")
	dataDir := flag.String("data-dir", "./data", "Base directory for run artifacts and tokens")
	resumeID := flag.String("resume", "", "Run ID to resume instead of starting a new run")
	privacy := flag.String("privacy", "public", "Privacy status for the uploaded video")
	skipPublish := flag.Bool("skip-publish", false, "Stop after composing the video")
	stageTimeout := flag.Duration("stage-timeout", 15*time.Minute, "Timeout for each stage's external call")
	flag.Parse()

	if *topic == "" && *booksFile == "" && *resumeID == "" {
		fmt.Println("Usage: bookcast-cli -topic <book-title> [-data-dir <path>] [-privacy unlisted] [-skip-publish]")
		fmt.Println("       bookcast-cli -books-file <path>     process the first unprocessed title from a list")
		fmt.Println("       bookcast-cli -resume <run-id>       resume a failed run from its last checkpoint")
		fmt.Println("\nExample:")
		fmt.Println("  bookcast-cli -topic \"Atomic Habits\"")
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	logger.Println("=== bookcast ===")
	logger.Printf("Data Directory: %s", *dataDir)

	// Initialize adapters
	dl := downloader.NewHTTPDownloader()
	ai, err := openai.NewClient(dl, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize OpenAI client: %v", err)
	}

	composer := ffmpeg.NewComposer(2*time.Second, logger)
	storage := localstorage.NewLocalStorage(*dataDir)

	var publisher ports.Publisher
	if !*skipPublish {
		publisher, err = buildPublisher(*dataDir, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize publisher: %v", err)
		}
	}

	orchestrator := service.NewOrchestrator(ai, ai, ai, ai, composer, publisher, storage, logger, service.Options{
		StageTimeout: *stageTimeout,
		Privacy:      *privacy,
		SkipPublish:  *skipPublish,
	})

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("\nReceived interrupt signal, cancelling...")
		cancel()
	}()

	var rc *domain.RunContext
	switch {
	case *resumeID != "":
		rc, err = orchestrator.Resume(ctx, *resumeID)

	case *booksFile != "":
		var title string
		title, err = service.NextUnprocessed(*booksFile)
		if err != nil {
			logger.Fatalf("Failed to read books file: %v", err)
		}
		if title == "" {
			logger.Println("No unprocessed titles left")
			return
		}
		logger.Printf("Processing: %s", title)
		rc, err = orchestrator.Run(ctx, title)
		if err == nil {
			if merr := service.MarkProcessed(*booksFile, title); merr != nil {
				logger.Printf("Warning: could not mark %q processed: %v", title, merr)
			}
		}

	default:
		rc, err = orchestrator.Run(ctx, *topic)
	}

	if err != nil {
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			logger.Printf("Run failed at stage %s: %v", stageErr.Stage, stageErr.Err)
			if rc != nil {
				logger.Printf("Resume with: bookcast-cli -resume %s  (state: %s)",
					rc.RunID, filepath.Join(storage.RunPath(rc.RunID), "run.json"))
			}
			os.Exit(exitCode(stageErr.Stage))
		}
		logger.Printf("Run failed: %v", err)
		os.Exit(1)
	}

	// Print summary
	fmt.Println("\n=== Run Summary ===")
	fmt.Printf("Run ID:       %s\n", rc.RunID)
	fmt.Printf("Topic:        %s\n", rc.Topic)
	fmt.Printf("Video:        %s\n", rc.VideoPath)
	if rc.VideoID != "" {
		fmt.Printf("Video ID:     %s\n", rc.VideoID)
	}
	if rc.DriveFileID != "" {
		fmt.Printf("Drive File:   %s\n", rc.DriveFileID)
	}
	fmt.Printf("Completed At: %s\n", rc.CompletedAt.Format(time.RFC3339))
}

// buildPublisher wires the credential manager and upload adapters. The Drive
// backup is enabled by setting BOOKCAST_DRIVE_BACKUP=1.
func buildPublisher(dataDir string, logger *log.Logger) (ports.Publisher, error) {
	secretFile := os.Getenv("GOOGLE_CLIENT_SECRET_FILE")
	if secretFile == "" {
		secretFile = "client_secret.json"
	}
	secret, err := os.ReadFile(secretFile)
	if err != nil {
		return nil, fmt.Errorf("reading client secret %s: %w", secretFile, err)
	}

	tokens, err := auth.NewFileTokenStore(filepath.Join(dataDir, "tokens"))
	if err != nil {
		return nil, err
	}
	sessions, err := auth.NewManager(secret, tokens, nil, logger)
	if err != nil {
		return nil, err
	}

	var backup publish.BackupUploader
	if os.Getenv("BOOKCAST_DRIVE_BACKUP") == "1" {
		backup = gdrive.NewUploader(sessions, logger)
	}

	return publish.NewPublisher(
		youtube.NewUploader(sessions, logger),
		backup,
		os.Getenv("BOOKCAST_DRIVE_FOLDER_ID"),
		logger,
	), nil
}
