package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shams-academy/assessment/internal/config"
	"github.com/shams-academy/assessment/internal/database"
	"github.com/shams-academy/assessment/internal/logger"
	"github.com/shams-academy/assessment/internal/model"
	"github.com/shams-academy/assessment/internal/repository"
	"github.com/shams-academy/assessment/internal/service"
)

type seedQuestion struct {
	text    string
	options []string
	correct int
}

type seedTest struct {
	req       model.CreateTestRequest
	questions []seedQuestion
}

var seeds = []seedTest{
	{
		req: model.CreateTestRequest{
			Title:            "Coding Fundamentals",
			Description:      "Check your understanding of basic programming concepts and syntax.",
			Category:         string(model.TestCategoryProgramming),
			TimeLimitSeconds: 1200,
		},
		questions: []seedQuestion{
			{"What does HTML stand for?", []string{
				"Hyper Text Markup Language",
				"High Tech Machine Learning",
				"Hyperlink and Text Management Logic",
				"Home Tool Management Language",
			}, 0},
			{"Which programming language is known for its use in web browsers?", []string{
				"Python", "JavaScript", "Java", "C++",
			}, 1},
			{"What symbol is used to assign a value to a variable in most programming languages?", []string{
				"=", ":", "->", "<-",
			}, 0},
			{"Which of the following is a loop structure?", []string{
				"if-else", "switch", "for", "print",
			}, 2},
			{"What does CSS stand for?", []string{
				"Computer Style Sheets",
				"Creative Style System",
				"Cascading Style Sheets",
				"Colorful Style Sheets",
			}, 2},
		},
	},
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	testRepo := repository.NewTestRepository(pool)
	testService := service.NewTestService(testRepo, noCache{}, log)

	fmt.Printf("=== Seeding %d Tests ===\n", len(seeds))

	created := 0
	for _, seed := range seeds {
		// Skip tests that already exist by title.
		var existing uuid.UUID
		err := pool.QueryRow(ctx, "SELECT id FROM tests WHERE title = $1", seed.req.Title).Scan(&existing)
		if err == nil {
			fmt.Printf("Test %q already exists (%s), skipping\n", seed.req.Title, existing)
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Fatal().Err(err).Msg("Failed to check existing test")
		}

		test, err := testService.Create(ctx, seed.req, 0)
		if err != nil {
			log.Fatal().Err(err).Str("title", seed.req.Title).Msg("Failed to create test")
		}
		for i, q := range seed.questions {
			correct := q.correct
			_, err := testService.AddQuestion(ctx, test.ID, model.AddQuestionRequest{
				Text:               q.text,
				Options:            q.options,
				CorrectOptionIndex: &correct,
				OrderNum:           i + 1,
			})
			if err != nil {
				log.Fatal().Err(err).Int("question", i+1).Msg("Failed to add question")
			}
		}
		created++
		fmt.Printf("Created %q with %d questions (%s)\n", test.Title, len(seed.questions), test.ID)
	}

	fmt.Printf("\nSeed completed! Added %d/%d tests.\n", created, len(seeds))
}

// noCache skips Redis: the server prewarms payloads on startup.
type noCache struct{}

func (noCache) Get(context.Context, uuid.UUID) (*model.Test, error) { return nil, repository.ErrCacheMiss }
func (noCache) Set(context.Context, *model.Test) error             { return nil }
func (noCache) Delete(context.Context, uuid.UUID) error            { return nil }
