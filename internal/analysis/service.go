package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/veslo-ai/textlab/internal/owner"
	"github.com/veslo-ai/textlab/internal/search"
	"github.com/veslo-ai/textlab/internal/store"
)

var (
	ErrEmptyText   = errors.New("analysis: text is empty")
	ErrTextTooLong = errors.New("analysis: text exceeds the length limit")
	ErrBadTitle    = errors.New("analysis: title is empty")
	ErrNoChanges   = errors.New("analysis: nothing to update")
)

const (
	titleLimit   = 80
	defaultTitle = "New session"
)

// Service orchestrates the analysis session lifecycle: ownership scoping,
// eviction on insert, content regeneration and the version-guarded update
// path.
type Service struct {
	repo        *Repo
	owners      *owner.Repo
	regen       *Regenerator
	guard       *store.Guard
	maxSessions int
	maxTextLen  int
	log         *slog.Logger
}

func NewService(repo *Repo, owners *owner.Repo, regen *Regenerator, guard *store.Guard, maxSessions, maxTextLen int, log *slog.Logger) *Service {
	if maxSessions <= 0 {
		maxSessions = 20
	}
	if maxTextLen <= 0 {
		maxTextLen = 100000
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:        repo,
		owners:      owners,
		regen:       regen,
		guard:       guard,
		maxSessions: maxSessions,
		maxTextLen:  maxTextLen,
		log:         log,
	}
}

type CreateInput struct {
	Title     string
	Text      string
	Category  int
	Choices   []int
	Temporary bool
}

type UpdateInput struct {
	Title           *string
	Text            *string
	Category        *int
	Choices         *[]int
	ExpectedVersion *int
}

// SearchResult pairs a session with its similarity score in [0, 1].
type SearchResult struct {
	Session Session
	Score   float64
}

func (s *Service) validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if len([]rune(text)) > s.maxTextLen {
		return ErrTextTooLong
	}
	return nil
}

// resolveTitle prefers an explicit title, then the short summary, then the
// raw text, truncated to the title limit.
func resolveTitle(title string, content Content, text string) string {
	if cleaned := strings.TrimSpace(title); cleaned != "" {
		return truncateTitle(cleaned)
	}
	if cleaned := strings.TrimSpace(content.ShortSummary); cleaned != "" {
		return truncateTitle(cleaned)
	}
	if cleaned := strings.TrimSpace(text); cleaned != "" {
		return truncateTitle(cleaned)
	}
	return defaultTitle
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= titleLimit {
		return s
	}
	return strings.TrimRight(string(runes[:titleLimit-3]), " ") + "..."
}

// Create regenerates content from scratch, auto-vivifies the owner, evicts
// the oldest sessions past the cap and inserts the new session at version 0.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Session, error) {
	if err := s.validateText(in.Text); err != nil {
		return nil, err
	}

	content, err := s.regen.Regenerate(ctx, in.Text, in.Category, in.Choices, Content{})
	if err != nil {
		return nil, err
	}

	own, err := s.owners.Ensure(ctx, ownerID, in.Temporary)
	if err != nil {
		return nil, err
	}

	if err := s.repo.TrimToLimit(ctx, own.OwnerID, s.maxSessions-1); err != nil {
		return nil, err
	}

	sid, err := store.NewSessionID()
	if err != nil {
		return nil, err
	}
	choices := in.Choices
	if choices == nil {
		choices = []int{}
	}
	session := &Session{
		SessionID:     sid,
		OwnerID:       own.OwnerID,
		Title:         resolveTitle(in.Title, content, in.Text),
		Text:          in.Text,
		CategoryIndex: in.Category,
		ChoiceIndexes: choices,
		Content:       content,
		Version:       0,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	if err := s.owners.Touch(ctx, own.OwnerID); err != nil {
		s.log.Warn("owner touch failed", "owner", own.OwnerID, "err", err)
	}
	s.log.Info("session created", "owner", own.OwnerID, "session", sid)
	return session, nil
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

// Update applies a rename and/or a content regeneration as one version
// increment through the version guard. A request that changes nothing fails
// with ErrNoChanges and leaves the row untouched.
func (s *Service) Update(ctx context.Context, ownerID, sessionID string, in UpdateInput) (*Session, error) {
	normalized, err := owner.Normalize(ownerID)
	if err != nil {
		return nil, err
	}
	session, err := s.repo.Get(ctx, normalized, sessionID)
	if err != nil {
		return nil, err
	}
	if in.ExpectedVersion != nil && *in.ExpectedVersion != session.Version {
		return nil, store.ErrVersionConflict
	}

	fields := make(map[string]any)
	changed := false
	titled := false

	if in.Title != nil {
		cleaned := strings.TrimSpace(*in.Title)
		if cleaned == "" {
			return nil, ErrBadTitle
		}
		if cleaned != session.Title {
			fields["title"] = truncateTitle(cleaned)
			changed = true
		}
		titled = true
	}

	if in.Text != nil || in.Category != nil || in.Choices != nil {
		newText := session.Text
		if in.Text != nil {
			newText = *in.Text
		}
		newCategory := session.CategoryIndex
		if in.Category != nil {
			newCategory = *in.Category
		}
		newChoices := []int(session.ChoiceIndexes)
		if in.Choices != nil {
			newChoices = *in.Choices
		}
		if err := s.validateText(newText); err != nil {
			return nil, err
		}

		content, err := s.regen.Regenerate(ctx, newText, newCategory, newChoices, session.Content)
		if err != nil {
			return nil, err
		}

		fields["text"] = newText
		fields["category_index"] = newCategory
		fields["choice_indexes"] = ChoiceList(newChoices)
		fields["short_summary"] = content.ShortSummary
		fields["entities"] = content.Entities
		fields["sentiments"] = content.Sentiments
		fields["classifications"] = content.Classifications
		fields["full_summary"] = content.FullSummary

		if !titled {
			if auto := resolveTitle("", content, newText); auto != session.Title {
				fields["title"] = auto
			}
		}
		changed = true
	}

	if !changed {
		return nil, ErrNoChanges
	}

	if _, err := s.guard.Apply(ctx, SessionTable, sessionID, normalized, in.ExpectedVersion, fields); err != nil {
		return nil, err
	}
	if err := s.owners.Touch(ctx, normalized); err != nil {
		s.log.Warn("owner touch failed", "owner", normalized, "err", err)
	}
	return s.repo.Get(ctx, normalized, sessionID)
}

// Delete removes the session. A second delete of the same session reports
// store.ErrNotFound rather than succeeding silently.
func (s *Service) Delete(ctx context.Context, ownerID, sessionID string) error {
	normalized, err := owner.Normalize(ownerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, normalized, sessionID); err != nil {
		return err
	}
	s.log.Info("session deleted", "owner", normalized, "session", sessionID)
	return nil
}

// Search ranks the owner's sessions against a free-text query.
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
		docs = append(docs, search.Document{ID: sess.SessionID, Blob: searchBlob(sess)})
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

// searchBlob concatenates every searchable text field of a session.
func searchBlob(s Session) string {
	parts := []string{
		s.Title,
		s.Text,
		s.Content.ShortSummary,
		s.Content.Entities,
		s.Content.Sentiments,
		s.Content.Classifications,
		s.Content.FullSummary,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " | ")
}

// MaxSessions exposes the configured per-owner cap.
func (s *Service) MaxSessions() int { return s.maxSessions }

// Repo exposes the backing repository for job bookkeeping.
func (s *Service) Repo() *Repo { return s.repo }
