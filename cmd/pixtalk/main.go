package main

import (
	"context"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"pixtalk/internal/adapter/repository"
	"pixtalk/internal/adapter/ui"
	"pixtalk/internal/domain/entity"
	"pixtalk/internal/infrastructure/capture"
	"pixtalk/internal/infrastructure/storage"
	"pixtalk/internal/usecase"
	"pixtalk/pkg/config"
	"pixtalk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	// Service account from environment variable first (for deployments),
	// file path as the local-development fallback.
	if cfg.ServiceAccountJSON != "" {
		log.Printf("Using service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	} else if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		log.Printf("Using service account from file: %s", cfg.ServiceAccountPath)
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	firestoreClient, err := firebaseApp.Firestore(ctx)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	threadRepo := repository.NewFirestoreThreadRepository(firestoreClient)
	userChatsRepo := repository.NewFirestoreUserChatsRepository(firestoreClient)

	session := entity.Session{
		CurrentUser: entity.User{
			ID:       cfg.CurrentUserID,
			Username: cfg.CurrentUserName,
		},
		ChatID: cfg.ChatID,
		Peer: entity.User{
			ID:       cfg.PeerUserID,
			Username: cfg.PeerUserName,
			Avatar:   cfg.PeerAvatar,
		},
		IsCurrentUserBlocked: cfg.IsCurrentUserBlocked,
		IsReceiverBlocked:    cfg.IsReceiverBlocked,
	}

	camera := capture.NewCamera(
		capture.MJPEGFactory(cfg.CameraStreamURL),
		int(cfg.CameraFrameWidth),
		int(cfg.CameraFrameHeight),
	)

	conversation := usecase.NewConversation(session, threadRepo, userChatsRepo, storageClient, camera)
	defer conversation.Close()

	recognizer := capture.NewSpeechRecognizer(
		cfg.SpeechGatewayURL,
		cfg.SpeechGatewayAPIKey,
		cfg.SpeechLanguage,
		conversation.ApplyTranscript,
	)

	if err := conversation.Open(ctx); err != nil {
		log.Fatalf("Failed to subscribe to chat %s: %v", cfg.ChatID, err)
	}

	// the TUI owns stdout from here on
	logFile, err := os.OpenFile("pixtalk.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err == nil {
		defer logFile.Close()
		logger.SetOutput(logFile)
		log.SetOutput(logFile)
	}

	program := tea.NewProgram(ui.NewChatModel(ctx, conversation, recognizer), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("UI error: %v", err)
	}
}
