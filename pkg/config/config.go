package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	FirebaseProject        string `validate:"required"`
	ServiceAccountJSON     string
	ServiceAccountPath     string
	StorageBucket          string `validate:"required"`
	Environment            string
	ChatID                 string `validate:"required"`
	CurrentUserID          string `validate:"required"`
	CurrentUserName        string
	PeerUserID             string `validate:"required"`
	PeerUserName           string
	PeerAvatar             string
	IsCurrentUserBlocked   bool
	IsReceiverBlocked      bool
	CameraStreamURL        string
	CameraFrameWidth       int64
	CameraFrameHeight      int64
	SpeechGatewayURL       string
	SpeechGatewayAPIKey    string
	SpeechLanguage         string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		FirebaseProject:      getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON:   getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:   getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:        getEnv("STORAGE_BUCKET", ""),
		Environment:          getEnv("ENVIRONMENT", "development"),
		ChatID:               getEnv("CHAT_ID", ""),
		CurrentUserID:        getEnv("CURRENT_USER_ID", ""),
		CurrentUserName:      getEnv("CURRENT_USER_NAME", ""),
		PeerUserID:           getEnv("PEER_USER_ID", ""),
		PeerUserName:         getEnv("PEER_USER_NAME", ""),
		PeerAvatar:           getEnv("PEER_AVATAR", ""),
		IsCurrentUserBlocked: getEnvAsBool("IS_CURRENT_USER_BLOCKED", false),
		IsReceiverBlocked:    getEnvAsBool("IS_RECEIVER_BLOCKED", false),
		CameraStreamURL:      getEnv("CAMERA_STREAM_URL", ""),
		CameraFrameWidth:     getEnvAsInt64("CAMERA_FRAME_WIDTH", 640),
		CameraFrameHeight:    getEnvAsInt64("CAMERA_FRAME_HEIGHT", 480),
		SpeechGatewayURL:     getEnv("SPEECH_GATEWAY_URL", ""),
		SpeechGatewayAPIKey:  getEnv("SPEECH_GATEWAY_API_KEY", ""),
		SpeechLanguage:       getEnv("SPEECH_LANGUAGE", "en-US"),
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}
