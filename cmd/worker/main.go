package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/veslo-ai/textlab/internal/ai"
	"github.com/veslo-ai/textlab/internal/analysis"
	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/config"
	"github.com/veslo-ai/textlab/internal/db"
	"github.com/veslo-ai/textlab/internal/owner"
	"github.com/veslo-ai/textlab/internal/store"
	"github.com/veslo-ai/textlab/internal/store/rabbitmq"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()
	gdb := db.Connect(cfg.DBDriver, cfg.DBDSN)

	cat, err := catalog.Load(gdb, cfg.AnalyzeTypesFile, cfg.TranslationModelsFile)
	if err != nil {
		log.Error("catalog load failed", "err", err)
		os.Exit(1)
	}

	completer := ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.CollaboratorTimeout)
	classifier := ai.NewZeroShotClient(cfg.ClassifierBaseURL, cfg.CollaboratorTimeout)
	regen := analysis.NewRegenerator(cat, completer, classifier, cfg.CharBudget, log)

	repo := analysis.NewRepo(gdb)
	svc := analysis.NewService(repo, owner.NewRepo(gdb), regen, store.NewGuard(gdb),
		cfg.MaxAnalysisSessions, cfg.MaxTextLength, log)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Error("rabbit dial failed", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Error("rabbit channel failed", "err", err)
		os.Exit(1)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Error("queue declare failed", "err", err)
		os.Exit(1)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Error("qos failed", "err", err)
		os.Exit(1)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Error("consume failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.JobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Warn("bad message", "worker", workerID, "err", err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, svc, repo, m.JobID); err != nil {
					log.Warn("job failed", "worker", workerID, "job_id", m.JobID,
						"cost", time.Since(start).String(), "err", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Warn("ack failed", "worker", workerID, "job_id", m.JobID, "err", err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

// handleJob runs a queued create through the same facade path the
// synchronous endpoint uses, then records the outcome on the job row.
func handleJob(ctx context.Context, svc *analysis.Service, repo *analysis.Repo, jobID string) error {
	if err := repo.MarkJobRunning(ctx, jobID); err != nil {
		return err
	}

	j, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	sess, err := svc.Create(ctx, j.OwnerID, analysis.CreateInput{
		Title:    j.Title,
		Text:     j.Text,
		Category: j.CategoryIndex,
		Choices:  j.ChoiceIndexes,
	})
	if err != nil {
		_ = repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}

	return repo.MarkJobSucceeded(ctx, jobID, sess.SessionID)
}
