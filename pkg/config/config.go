package config

import (
	"os"
	"strconv"
)

type Config struct {
	GoogleApiKey   string
	SerperApiKey   string
	DatabaseURL    string
	Model          string
	EmbeddingModel string
	Port           string
	ChunkSize      int
	ChunkOverlap   int
	SearchResults  int
	OutputDir      string
	CollectionName string
}

func Load() *Config {
	return &Config{
		GoogleApiKey:   getEnv("GOOGLE_API_KEY", ""),
		SerperApiKey:   getEnv("SERPER_API_KEY", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Model:          getEnv("MODEL", "gemini-3-flash-preview"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		Port:           getEnv("PORT", "8080"),
		ChunkSize:      getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
		SearchResults:  getEnvAsInt("SEARCH_RESULTS", 5),
		OutputDir:      getEnv("OUTPUT_DIR", "output"),
		CollectionName: getEnv("COLLECTION_NAME", "research_db"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
