package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veslo-ai/textlab/internal/ai"
	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/owner"
	"github.com/veslo-ai/textlab/internal/search"
	"github.com/veslo-ai/textlab/internal/store"
)

var (
	ErrEmptyQuery = errors.New("translate: query is empty")
	ErrBadTitle   = errors.New("translate: title is empty")
)

// Service orchestrates translation sessions: detect, route, translate,
// persist under the shared version guard.
type Service struct {
	repo        *Repo
	owners      *owner.Repo
	catalog     *catalog.Catalog
	registry    *ai.Registry
	detector    ai.Detector
	guard       *store.Guard
	maxSessions int
	defaultLang string
	log         *slog.Logger
}

func NewService(repo *Repo, owners *owner.Repo, cat *catalog.Catalog, registry *ai.Registry, detector ai.Detector, guard *store.Guard, maxSessions int, defaultLang string, log *slog.Logger) *Service {
	if maxSessions <= 0 {
		maxSessions = 100
	}
	if defaultLang == "" {
		defaultLang = "en"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:        repo,
		owners:      owners,
		catalog:     cat,
		registry:    registry,
		detector:    detector,
		guard:       guard,
		maxSessions: maxSessions,
		defaultLang: defaultLang,
		log:         log,
	}
}

// Result is the outcome of a translation pipeline run. Err is transient: it
// rides the response but is never persisted, and a failed pipeline leaves
// the stored session untouched.
type Result struct {
	Session Session
	Err     string
}

// SearchResult pairs a session with its similarity score.
type SearchResult struct {
	Session Session
	Score   float64
}

// pipeline resolves the source language and produces the translation.
// Detection runs only for "auto"; AUTO mode routes to SPECIAL when a special
// model covers the source language.
func (s *Service) pipeline(ctx context.Context, query, mode, sourceLang, targetLang string) (resolvedMode, resolvedSource, translation string, pipeErr error) {
	resolvedMode = strings.ToUpper(mode)
	resolvedSource = strings.ToLower(sourceLang)

	if resolvedSource == "auto" {
		detected, err := s.detector.Detect(query)
		if err != nil {
			return resolvedMode, resolvedSource, "", err
		}
		resolvedSource = detected
	}
	if !KnownLanguage(resolvedSource) {
		return resolvedMode, resolvedSource, "", fmt.Errorf("unsupported language: %s", resolvedSource)
	}

	if resolvedMode == catalog.ModeAuto {
		resolvedMode = catalog.ModeUniversal
		for _, lang := range s.catalog.SpecialSourceLanguages() {
			if lang == resolvedSource {
				resolvedMode = catalog.ModeSpecial
				break
			}
		}
	}

	translator, err := s.registry.Get(ctx, resolvedMode)
	if err != nil {
		return resolvedMode, resolvedSource, "", err
	}
	translation, err = translator.Translate(ctx, query, resolvedSource, targetLang)
	if err != nil {
		return resolvedMode, resolvedSource, "", err
	}
	return resolvedMode, resolvedSource, translation, nil
}

func makeTitle(query, translation string) string {
	head := func(s string, n int) string {
		runes := []rune(strings.TrimSpace(s))
		if len(runes) > n {
			runes = runes[:n]
		}
		return string(runes)
	}
	return head(query, 10) + " → " + head(translation, 10)
}

// Create runs the pipeline and persists a new session at version 0. When the
// pipeline fails, the result carries the error and nothing is stored.
func (s *Service) Create(ctx context.Context, ownerID, query, modelID string, temporary bool) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	mode := catalog.ModeAuto
	sourceLang := "auto"
	targetLang := s.defaultLang
	if modelID != "" {
		model, err := s.catalog.Model(modelID)
		if err != nil {
			return nil, err
		}
		mode = model.Mode
		sourceLang = model.SourceLanguage
		targetLang = model.TargetLanguage
	}

	resolvedMode, resolvedSource, translation, pipeErr := s.pipeline(ctx, query, mode, sourceLang, targetLang)

	sid, err := store.NewSessionID()
	if err != nil {
		return nil, err
	}
	session := Session{
		SessionID:      sid,
		OwnerID:        ownerID,
		Title:          makeTitle(query, translation),
		Mode:           resolvedMode,
		Query:          query,
		Translation:    translation,
		SourceLanguage: resolvedSource,
		TargetLanguage: targetLang,
		Version:        0,
	}

	if pipeErr != nil {
		s.log.Warn("translation pipeline failed", "owner", ownerID, "err", pipeErr)
		return &Result{Session: session, Err: pipeErr.Error()}, nil
	}

	own, err := s.owners.Ensure(ctx, ownerID, temporary)
	if err != nil {
		return nil, err
	}
	session.OwnerID = own.OwnerID
	if err := s.repo.TrimToLimit(ctx, own.OwnerID, s.maxSessions-1); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &session); err != nil {
		return nil, err
	}
	if err := s.owners.Touch(ctx, own.OwnerID); err != nil {
		s.log.Warn("owner touch failed", "owner", own.OwnerID, "err", err)
	}
	return &Result{Session: session}, nil
}

func (s *Service) Get(ctx context.Context, ownerID, sessionID string) (*Session, error) {
	normalized, err := owner.Normalize(ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, normalized, sessionID)
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Session, error) {
	normalized, err := owner.Normalize(ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, normalized, s.maxSessions)
}

// Retranslate re-runs the pipeline with a new query and/or model and commits
// the result as one version increment. A pipeline failure returns the error
// on the result and leaves the stored session (and its version) untouched.
func (s *Service) Retranslate(ctx context.Context, ownerID, sessionID, modelID, query string, expectedVersion *int) (*Result, error) {
	normalized, err := owner.Normalize(ownerID)
	if err != nil {
		return nil, err
	}
	session, err := s.repo.Get(ctx, normalized, sessionID)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && *expectedVersion != session.Version {
		return nil, store.ErrVersionConflict
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	mode := session.Mode
	sourceLang := session.SourceLanguage
	targetLang := session.TargetLanguage
	if modelID != "" {
		model, err := s.catalog.Model(modelID)
		if err != nil {
			return nil, err
		}
		mode = model.Mode
		sourceLang = model.SourceLanguage
		targetLang = model.TargetLanguage
	}

	resolvedMode, resolvedSource, translation, pipeErr := s.pipeline(ctx, query, mode, sourceLang, targetLang)
	if pipeErr != nil {
		s.log.Warn("translation pipeline failed", "owner", normalized, "session", sessionID, "err", pipeErr)
		preview := *session
		preview.Mode = resolvedMode
		preview.Query = query
		preview.SourceLanguage = resolvedSource
		return &Result{Session: preview, Err: pipeErr.Error()}, nil
	}

	fields := map[string]any{
		"mode":            resolvedMode,
		"query":           query,
		"translation":     translation,
		"source_language": resolvedSource,
		"target_language": targetLang,
	}
	if _, err := s.guard.Apply(ctx, SessionTable, sessionID, normalized, expectedVersion, fields); err != nil {
		return nil, err
	}
	if err := s.owners.Touch(ctx, normalized); err != nil {
		s.log.Warn("owner touch failed", "owner", normalized, "err", err)
	}
	updated, err := s.repo.Get(ctx, normalized, sessionID)
	if err != nil {
		return nil, err
	}
	return &Result{Session: *updated}, nil
}

// Rename changes only the title, as one version increment.
func (s *Service) Rename(ctx context.Context, ownerID, sessionID, title string, expectedVersion *int) (*Session, error) {
	normalized, err := owner.Normalize(ownerID)
	if err != nil {
		return nil, err
	}
	cleaned := strings.TrimSpace(title)
	if cleaned == "" {
		return nil, ErrBadTitle
	}
	if _, err := s.repo.Get(ctx, normalized, sessionID); err != nil {
		return nil, err
	}
	if _, err := s.guard.Apply(ctx, SessionTable, sessionID, normalized, expectedVersion, map[string]any{"title": cleaned}); err != nil {
		return nil, err
	}
	if err := s.owners.Touch(ctx, normalized); err != nil {
		s.log.Warn("owner touch failed", "owner", normalized, "err", err)
	}
	return s.repo.Get(ctx, normalized, sessionID)
}

func (s *Service) Delete(ctx context.Context, ownerID, sessionID string) error {
	normalized, err := owner.Normalize(ownerID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, normalized, sessionID)
}

// Search ranks the owner's translation sessions against a query.
func (s *Service) Search(ctx context.Context, ownerID, query string) ([]SearchResult, error) {
	normalized, err := owner.Normalize(ownerID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.List(ctx, normalized, 0)
	if err != nil {
		return nil, err
	}

	docs := make([]search.Document, 0, len(sessions))
	byID := make(map[string]Session, len(sessions))
	for _, sess := range sessions {
		blob := strings.Join([]string{sess.Title, sess.Query, sess.Translation}, " | ")
		docs = append(docs, search.Document{ID: sess.SessionID, Blob: blob})
		byID[sess.SessionID] = sess
	}

	matches, err := search.Rank(docs, query, s.maxSessions)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, SearchResult{Session: byID[m.ID], Score: m.Score})
	}
	return results, nil
}

// SourceLanguageTitle and TargetLanguageTitle resolve display names at
// serialization time; only codes are stored.
func (s Session) SourceLanguageTitle() string { return LangTitle(s.SourceLanguage) }
func (s Session) TargetLanguageTitle() string { return LangTitle(s.TargetLanguage) }
