package handlers

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/veslo-ai/textlab/internal/ai"
	"github.com/veslo-ai/textlab/internal/analysis"
	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/config"
	"github.com/veslo-ai/textlab/internal/document"
	"github.com/veslo-ai/textlab/internal/owner"
	"github.com/veslo-ai/textlab/internal/store"
	"github.com/veslo-ai/textlab/internal/store/rabbitmq"
	"github.com/veslo-ai/textlab/internal/store/redisstore"
	"github.com/veslo-ai/textlab/internal/translate"
)

type Handler struct {
	DB        *gorm.DB
	Cfg       config.Config
	Redis     *redisstore.Store
	Rabbit    *rabbitmq.Publisher
	Catalog   *catalog.Catalog
	Owners    *owner.Repo
	Analysis  *analysis.Service
	Translate *translate.Service
	Extractor *document.Extractor
	Log       *slog.Logger
}

// NewHandler wires the collaborator clients and both session services.
// rabbit may be nil; the async endpoints then report the queue as down.
func NewHandler(db *gorm.DB, cfg config.Config, cat *catalog.Catalog, rds *redisstore.Store, rabbit *rabbitmq.Publisher, log *slog.Logger) *Handler {
	owners := owner.NewRepo(db)
	guard := store.NewGuard(db)

	completer := ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.CollaboratorTimeout)
	classifier := ai.NewZeroShotClient(cfg.ClassifierBaseURL, cfg.CollaboratorTimeout)

	regen := analysis.NewRegenerator(cat, completer, classifier, cfg.CharBudget, log)
	analysisSvc := analysis.NewService(
		analysis.NewRepo(db), owners, regen, guard,
		cfg.MaxAnalysisSessions, cfg.MaxTextLength, log,
	)

	registry := ai.NewRegistry()
	registry.Register(catalog.ModeUniversal, func(ctx context.Context) (ai.Translator, error) {
		return &ai.UniversalTranslator{Completer: completer, LanguageName: translate.LangTitle}, nil
	})
	registry.Register(catalog.ModeSpecial, func(ctx context.Context) (ai.Translator, error) {
		return ai.NewSpecialTranslator(cfg.TranslatorBaseURL, cfg.CollaboratorTimeout), nil
	})

	translateSvc := translate.NewService(
		translate.NewRepo(db), owners, cat, registry, ai.NewWhatlangDetector(), guard,
		cfg.MaxTranslationSessions, cfg.DefaultTargetLanguage, log,
	)

	return &Handler{
		DB:        db,
		Cfg:       cfg,
		Redis:     rds,
		Rabbit:    rabbit,
		Catalog:   cat,
		Owners:    owners,
		Analysis:  analysisSvc,
		Translate: translateSvc,
		Extractor: document.NewExtractor(cfg.SupportedFormats),
		Log:       log,
	}
}
