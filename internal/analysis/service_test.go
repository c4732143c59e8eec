package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/owner"
	"github.com/veslo-ai/textlab/internal/search"
	"github.com/veslo-ai/textlab/internal/store"
)

type fakeCompleter struct {
	calls int
	fn    func(prompt, text string) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt, text string) (string, error) {
	_ = ctx
	f.calls++
	if f.fn != nil {
		return f.fn(prompt, text)
	}
	return "completion for: " + prompt, nil
}

type fakeClassifier struct {
	label string
	err   error
}

func (f *fakeClassifier) Classify(ctx context.Context, text string, labels []string) (string, float64, error) {
	_ = ctx
	_ = text
	_ = labels
	if f.err != nil {
		return "", 0, f.err
	}
	return f.label, 0.9, nil
}

func testCatalog() *catalog.Catalog {
	return catalog.FromCategories([]catalog.Category{
		{
			CategoryID: "cat-news",
			Name:       "News",
			Position:   0,
			Choices: []catalog.Choice{
				{ChoiceID: "ch-ann", CategoryID: "cat-news", Name: "annotation", Prompt: "Annotate this.", ModelType: "universal", Position: 0},
				{ChoiceID: "ch-ent", CategoryID: "cat-news", Name: "entities", Prompt: "", ModelType: "", Position: 1},
				{ChoiceID: "ch-sen", CategoryID: "cat-news", Name: "sentiment", Prompt: "", ModelType: "", Position: 2},
				{ChoiceID: "ch-cls", CategoryID: "cat-news", Name: "classification", Prompt: "politics, sports", ModelType: "pretrained", Position: 3},
				{ChoiceID: "ch-con", CategoryID: "cat-news", Name: "conclusions", Prompt: "Conclude this.", ModelType: "universal", Position: 4},
			},
		},
	}, nil)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&owner.Owner{}, &Session{}, &Job{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, maxSessions int, completer *fakeCompleter, classifier *fakeClassifier) (*Service, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	if completer == nil {
		completer = &fakeCompleter{}
	}
	if classifier == nil {
		classifier = &fakeClassifier{label: "sports"}
	}
	regen := NewRegenerator(testCatalog(), completer, classifier, 12000, nil)
	svc := NewService(NewRepo(db), owner.NewRepo(db), regen, store.NewGuard(db), maxSessions, 0, nil)
	return svc, db
}

func TestCreate_GeneratesContentAndVivifiesOwner(t *testing.T) {
	svc, db := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-create", CreateInput{
		Text:    "A plain piece of text.",
		Choices: []int{0, 2},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Version != 0 {
		t.Fatalf("expected version 0, got %d", sess.Version)
	}
	if sess.Content.ShortSummary != "completion for: Annotate this." {
		t.Fatalf("unexpected short summary: %q", sess.Content.ShortSummary)
	}
	if sess.Content.Sentiments == "" {
		t.Fatalf("expected sentiment to be generated")
	}
	if sess.Content.FullSummary != "" {
		t.Fatalf("unrequested field should stay empty, got %q", sess.Content.FullSummary)
	}
	// title comes from the generated short summary
	if sess.Title != "completion for: Annotate this." {
		t.Fatalf("unexpected title: %q", sess.Title)
	}

	if _, err := owner.NewRepo(db).Get(ctx, "owner-create"); err != nil {
		t.Fatalf("expected owner to be auto-created: %v", err)
	}
}

func TestCreate_TitleFallsBackToTextThenDefault(t *testing.T) {
	svc, _ := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-title", CreateInput{Text: "Short text body"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Title != "Short text body" {
		t.Fatalf("expected raw-text title, got %q", sess.Title)
	}

	long := strings.Repeat("x", 120)
	sess, err = svc.Create(ctx, "owner-title", CreateInput{Text: long})
	if err != nil {
		t.Fatalf("create long: %v", err)
	}
	if got := len([]rune(sess.Title)); got != 80 {
		t.Fatalf("expected 80-rune title, got %d", got)
	}
	if !strings.HasSuffix(sess.Title, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", sess.Title)
	}
}

func TestCreate_RejectsUnknownCategoryAndChoice(t *testing.T) {
	svc, db := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-strict", CreateInput{Text: "text", Category: 7})
	if !errors.Is(err, catalog.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	_, err = svc.Create(ctx, "owner-strict", CreateInput{Text: "text", Choices: []int{0, 9}})
	if !errors.Is(err, catalog.ErrUnknownChoice) {
		t.Fatalf("expected ErrUnknownChoice, got %v", err)
	}

	// the whole call is rejected: nothing persisted, owner not vivified
	var count int64
	db.Model(&Session{}).Where("owner_id = ?", "owner-strict").Count(&count)
	if count != 0 {
		t.Fatalf("rejected create leaked %d sessions", count)
	}
	if _, err := owner.NewRepo(db).Get(ctx, "owner-strict"); !errors.Is(err, owner.ErrNotFound) {
		t.Fatalf("rejected create vivified the owner: %v", err)
	}
}

func TestCreate_ValidatesText(t *testing.T) {
	svc, _ := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "owner-v", CreateInput{Text: "   "}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}

	db := openTestDB(t)
	regen := NewRegenerator(testCatalog(), &fakeCompleter{}, &fakeClassifier{label: "sports"}, 12000, nil)
	tiny := NewService(NewRepo(db), owner.NewRepo(db), regen, store.NewGuard(db), 20, 10, nil)
	if _, err := tiny.Create(ctx, "owner-v", CreateInput{Text: strings.Repeat("a", 11)}); !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
}

func TestCreate_EvictsOldestPastCap(t *testing.T) {
	svc, _ := newTestService(t, 2, nil, nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		sess, err := svc.Create(ctx, "owner-evict", CreateInput{Text: fmt.Sprintf("text number %d", i)})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, sess.SessionID)
		time.Sleep(2 * time.Millisecond)
	}

	sessions, err := svc.List(ctx, "owner-evict")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions after eviction, got %d", len(sessions))
	}
	for _, s := range sessions {
		if s.SessionID == ids[0] {
			t.Fatalf("oldest session %s should have been evicted", ids[0])
		}
	}
}

func TestUpdate_StaleVersionRejectsWholeMutation(t *testing.T) {
	svc, _ := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-cas", CreateInput{Text: "original text"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stale := 5
	newTitle := "Renamed"
	_, err = svc.Update(ctx, "owner-cas", sess.SessionID, UpdateInput{Title: &newTitle, ExpectedVersion: &stale})
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	reloaded, err := svc.Get(ctx, "owner-cas", sess.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Title != sess.Title || reloaded.Version != 0 {
		t.Fatalf("rejected update leaked: title=%q version=%d", reloaded.Title, reloaded.Version)
	}
}

func TestUpdate_RenameIsOneVersionIncrement(t *testing.T) {
	svc, _ := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-rename", CreateInput{Text: "keep this text"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	expected := 0
	newTitle := "My session"
	updated, err := svc.Update(ctx, "owner-rename", sess.SessionID, UpdateInput{Title: &newTitle, ExpectedVersion: &expected})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("expected version 1, got %d", updated.Version)
	}
	if updated.Title != "My session" {
		t.Fatalf("unexpected title: %q", updated.Title)
	}
	if updated.Text != "keep this text" {
		t.Fatalf("rename must not touch text, got %q", updated.Text)
	}
}

func TestUpdate_ReanalysisRefreshesContentAndTitle(t *testing.T) {
	completer := &fakeCompleter{fn: func(prompt, text string) (string, error) {
		return "summary of " + text, nil
	}}
	svc, _ := newTestService(t, 20, completer, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-rean", CreateInput{Text: "first text", Choices: []int{0}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Title != "summary of first text" {
		t.Fatalf("unexpected initial title: %q", sess.Title)
	}

	newText := "second text"
	updated, err := svc.Update(ctx, "owner-rean", sess.SessionID, UpdateInput{Text: &newText})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content.ShortSummary != "summary of second text" {
		t.Fatalf("content not regenerated: %q", updated.Content.ShortSummary)
	}
	if updated.Title != "summary of second text" {
		t.Fatalf("title not refreshed: %q", updated.Title)
	}
	if updated.Version != 1 {
		t.Fatalf("expected a single version increment, got %d", updated.Version)
	}
}

func TestUpdate_ExplicitTitleSticksThroughReanalysis(t *testing.T) {
	svc, _ := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-stick", CreateInput{Title: "Pinned", Text: "first text", Choices: []int{0}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newText := "second text"
	pinned := "Pinned"
	updated, err := svc.Update(ctx, "owner-stick", sess.SessionID, UpdateInput{Title: &pinned, Text: &newText})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Pinned" {
		t.Fatalf("explicit title was overridden: %q", updated.Title)
	}
	if updated.Version != 1 {
		t.Fatalf("rename plus reanalysis must be one increment, got %d", updated.Version)
	}
}

func TestUpdate_NoChanges(t *testing.T) {
	svc, _ := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-noop", CreateInput{Title: "Same", Text: "text"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, "owner-noop", sess.SessionID, UpdateInput{}); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges for empty input, got %v", err)
	}
	same := "Same"
	if _, err := svc.Update(ctx, "owner-noop", sess.SessionID, UpdateInput{Title: &same}); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges for identical title, got %v", err)
	}
	blank := "   "
	if _, err := svc.Update(ctx, "owner-noop", sess.SessionID, UpdateInput{Title: &blank}); !errors.Is(err, ErrBadTitle) {
		t.Fatalf("expected ErrBadTitle, got %v", err)
	}
}

func TestOwnershipScopingHidesForeignSessions(t *testing.T) {
	svc, _ := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-one", CreateInput{Text: "private text"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, "owner-two", sess.SessionID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if err := svc.Delete(ctx, "owner-two", sess.SessionID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	title := "hijack"
	if _, err := svc.Update(ctx, "owner-two", sess.SessionID, UpdateInput{Title: &title}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}
}

func TestDelete_SecondDeleteReportsNotFound(t *testing.T) {
	svc, _ := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, "owner-del", CreateInput{Text: "to be deleted"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, "owner-del", sess.SessionID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.Delete(ctx, "owner-del", sess.SessionID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSearch_RanksOwnSessionsOnly(t *testing.T) {
	svc, _ := newTestService(t, 20, nil, nil)
	ctx := context.Background()

	mine, err := svc.Create(ctx, "owner-s1", CreateInput{Text: "database migration guide"})
	if err != nil {
		t.Fatalf("create mine: %v", err)
	}
	if _, err := svc.Create(ctx, "owner-s1", CreateInput{Text: "cooking recipes for pasta"}); err != nil {
		t.Fatalf("create other: %v", err)
	}
	if _, err := svc.Create(ctx, "owner-s2", CreateInput{Text: "database migration guide"}); err != nil {
		t.Fatalf("create foreign: %v", err)
	}

	results, err := svc.Search(ctx, "owner-s1", "database migration")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one match")
	}
	if results[0].Session.SessionID != mine.SessionID {
		t.Fatalf("expected %s first, got %s", mine.SessionID, results[0].Session.SessionID)
	}
	for _, r := range results {
		if r.Session.OwnerID != "owner-s1" {
			t.Fatalf("foreign session leaked into results: %s", r.Session.SessionID)
		}
		if r.Score <= 0 || r.Score > 1 {
			t.Fatalf("score out of range: %f", r.Score)
		}
	}

	if _, err := svc.Search(ctx, "owner-s1", "  "); !errors.Is(err, search.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}
