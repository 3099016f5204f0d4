package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/quiznexusai/quiznexus-backend/internal/config"
	"github.com/quiznexusai/quiznexus-backend/internal/database"
	"github.com/quiznexusai/quiznexus-backend/internal/logger"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/quiznexusai/quiznexus-backend/internal/repository"
)

// seedEntry is one question plus its answer in the import file. The answer
// list follows the same shape the authoring API takes: one text for single
// choice and true/false, a set for multiple choice, the full order for
// ordering questions.
type seedEntry struct {
	Section int      `json:"section"`
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Points  float64  `json:"points"`
	Options []string `json:"options"`
	Answer  []string `json:"answer"`
}

func main() {
	var file string
	flag.StringVar(&file, "file", "questions.json", "Path to question seed file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)
	keyRepo := repository.NewAnswerKeyRepository(pool)

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
	}

	var entries []seedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Fatal().Err(err).Msg("Seed file is not valid JSON")
	}

	fmt.Printf("=== Seeding %d Questions ===\n", len(entries))

	created := 0
	for i, e := range entries {
		q := &model.Question{
			Section: e.Section,
			Text:    e.Text,
			Type:    model.QuestionType(e.Type),
			Points:  e.Points,
			Options: e.Options,
		}
		if err := questionRepo.Create(ctx, q); err != nil {
			log.Error().Err(err).Int("entry", i).Msg("Failed to insert question")
			continue
		}
		if err := keyRepo.Upsert(ctx, &model.AnswerKey{QuestionID: q.ID, Texts: e.Answer}); err != nil {
			log.Error().Err(err).Int("entry", i).Msg("Failed to insert answer key")
			continue
		}
		created++
	}

	fmt.Printf("Seeded %d/%d questions\n", created, len(entries))
}
