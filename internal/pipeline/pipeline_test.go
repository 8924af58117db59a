package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/credence/internal/factcheck"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/score"
	"github.com/ppiankov/credence/internal/signals"
	"github.com/ppiankov/credence/internal/store"
)

type fakeProvider[T any] struct {
	fn    func(text string) (T, error)
	calls atomic.Int32
}

func (f *fakeProvider[T]) Name() string { return "fake" }

func (f *fakeProvider[T]) Infer(ctx context.Context, text string) (T, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, &model.InferenceError{Provider: "fake", Err: err}
	}
	return f.fn(text)
}

func factual() *fakeProvider[signals.ContentLabel] {
	return &fakeProvider[signals.ContentLabel]{fn: func(text string) (signals.ContentLabel, error) {
		if strings.Contains(text, "panne") {
			return signals.ContentLabel{}, &model.InferenceError{Provider: "fake", Task: signals.TaskContent, Transient: true, Err: errors.New("timeout")}
		}
		return signals.ContentLabel{Label: "neutral", Category: model.ContentFactual, Confidence: 0.9}, nil
	}}
}

func notFake() *fakeProvider[signals.FakeNewsVerdict] {
	return &fakeProvider[signals.FakeNewsVerdict]{fn: func(string) (signals.FakeNewsVerdict, error) {
		return signals.FakeNewsVerdict{IsFake: false, Confidence: 0.1}, nil
	}}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// recordingStore remembers the order of analysis writes and can fail after some of them
type recordingStore struct {
	*store.MemoryStore

	mu        sync.Mutex
	saved     []int64
	failAfter int
}

func (s *recordingStore) SaveAnalysis(ctx context.Context, result *model.AnalysisResult) error {
	s.mu.Lock()
	if s.failAfter > 0 && len(s.saved) >= s.failAfter {
		s.mu.Unlock()
		return &model.PersistenceError{Op: "save analysis", Err: errors.New("connection reset")}
	}
	s.saved = append(s.saved, result.PostID)
	s.mu.Unlock()
	return s.MemoryStore.SaveAnalysis(ctx, result)
}

// racingStore writes a rival analysis for racePost just before the orchestrator's own write
type racingStore struct {
	*store.MemoryStore
	racePost int64
}

func (s *racingStore) SaveAnalysis(ctx context.Context, result *model.AnalysisResult) error {
	if result.PostID == s.racePost {
		rival := *result
		if err := s.MemoryStore.SaveAnalysis(ctx, &rival); err != nil {
			return err
		}
	}
	return s.MemoryStore.SaveAnalysis(ctx, result)
}

// unreadableFactChecks fails every fact-check read
type unreadableFactChecks struct {
	*store.MemoryStore
}

func (s *unreadableFactChecks) FactChecks(ctx context.Context, postID int64) ([]model.FactCheckRecord, error) {
	return nil, &model.PersistenceError{Op: "list fact-checks", Err: errors.New("connection reset")}
}

// staticLookup serves fixed verdicts by post id
type staticLookup struct {
	verdicts map[int64]*model.FactCheckVerdict
	err      error
}

func (l *staticLookup) Lookup(ctx context.Context, postID int64) (*model.FactCheckVerdict, error) {
	if l.err != nil {
		return nil, &model.ExternalLookupError{PostID: postID, Err: l.err}
	}
	return l.verdicts[postID], nil
}

func seed(t *testing.T, st store.PostWriter, contents ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(contents))
	for _, c := range contents {
		id, _, err := st.InsertPost(context.Background(), &model.Post{Title: "Titre", Content: c})
		if err != nil {
			t.Fatalf("InsertPost: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func newOrchestrator(st Store, lookup FactCheckLookup, concurrency int) *Orchestrator {
	set := signals.Set{Content: factual(), FakeNews: notFake()}
	return NewOrchestrator(st, set, lookup, score.NewEngine(nil), Options{Concurrency: concurrency, Log: quietLogger()})
}

func TestAnalyzeUnanalyzed_ScoresAndPersists(t *testing.T) {
	st := store.NewMemoryStore()
	ids := seed(t, st, "Le taux de chômage a baissé", "La météo annonce du soleil")

	report, err := newOrchestrator(st, nil, 1).AnalyzeUnanalyzed(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeUnanalyzed failed: %v", err)
	}
	if report.Candidates != 2 || report.Processed != 2 || report.Persisted != 2 || report.Skipped != 0 {
		t.Errorf("unexpected report %+v", report)
	}
	if report.RunID == "" {
		t.Error("expected a run id")
	}

	a, err := st.GetAnalysis(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if a.ContentReliabilityScore != 78 || a.GlobalReliabilityScore != 78 {
		t.Errorf("scores = %v/%v, want 78/78", a.ContentReliabilityScore, a.GlobalReliabilityScore)
	}
	if a.FinalCategory != model.CategoryReliable {
		t.Errorf("category = %s, want %s", a.FinalCategory, model.CategoryReliable)
	}
	if a.ConfidenceLevel != model.ConfidenceLow {
		t.Errorf("confidence = %s, want %s", a.ConfidenceLevel, model.ConfidenceLow)
	}
	if a.HasFactCheck || a.ExternalReliabilityScore != 50 {
		t.Errorf("expected neutral external score without fact-check, got %+v", a)
	}
}

func TestAnalyzeUnanalyzed_SkipsFailingPosts(t *testing.T) {
	st := store.NewMemoryStore()
	ids := seed(t, st, "Premier message", "Le serveur est en panne", "https://t.co/abc", "Dernier message")

	report, err := newOrchestrator(st, nil, 1).AnalyzeUnanalyzed(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeUnanalyzed failed: %v", err)
	}
	if report.Processed != 4 || report.Skipped != 1 || report.Persisted != 3 {
		t.Errorf("unexpected report %+v", report)
	}

	pending, err := st.UnanalyzedPosts(context.Background())
	if err != nil {
		t.Fatalf("UnanalyzedPosts: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != ids[1] {
		t.Errorf("expected post %d left for the next run, got %+v", ids[1], pending)
	}
}

func TestAnalyzeUnanalyzed_SkipsEmptyText(t *testing.T) {
	st := store.NewMemoryStore()
	if _, _, err := st.InsertPost(context.Background(), &model.Post{Title: "None", Content: "https://t.co/abc @someone"}); err != nil {
		t.Fatal(err)
	}

	report, err := newOrchestrator(st, nil, 1).AnalyzeUnanalyzed(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeUnanalyzed failed: %v", err)
	}
	if report.Skipped != 1 || report.Persisted != 0 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestAnalyzeUnanalyzed_FactChecks(t *testing.T) {
	st := store.NewMemoryStore()
	ids := seed(t, st, "Le vaccin provoque l'autisme")

	lookup := &staticLookup{verdicts: map[int64]*model.FactCheckVerdict{
		ids[0]: {Rating: "Faux", Source: "AFP Factuel", Link: "https://factuel.afp.com/x"},
	}}
	if _, err := newOrchestrator(st, lookup, 1).AnalyzeUnanalyzed(context.Background()); err != nil {
		t.Fatalf("AnalyzeUnanalyzed failed: %v", err)
	}

	a, err := st.GetAnalysis(context.Background(), ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if !a.HasFactCheck || a.FactCheckSource != "AFP Factuel" || a.FactCheckRating != "Faux" {
		t.Errorf("fact-check not carried: %+v", a)
	}
	if a.GlobalReliabilityScore >= 78 {
		t.Errorf("expected a false rating to pull the score down, got %v", a.GlobalReliabilityScore)
	}
}

func TestAnalyzeUnanalyzed_LookupFailureScoresWithoutFactCheck(t *testing.T) {
	st := store.NewMemoryStore()
	ids := seed(t, st, "Un message")

	lookup := &staticLookup{err: errors.New("quota exceeded")}
	report, err := newOrchestrator(st, lookup, 1).AnalyzeUnanalyzed(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeUnanalyzed failed: %v", err)
	}
	if report.Persisted != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	a, err := st.GetAnalysis(context.Background(), ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if a.HasFactCheck || a.ExternalReliabilityScore != 50 {
		t.Errorf("expected no fact-check, got %+v", a)
	}
}

func TestAnalyzeUnanalyzed_PersistenceFailureAborts(t *testing.T) {
	st := &recordingStore{MemoryStore: store.NewMemoryStore(), failAfter: 1}
	seed(t, st, "un", "deux", "trois")

	set := signals.Set{Content: factual(), FakeNews: notFake()}
	o := NewOrchestrator(st, set, nil, nil, Options{Log: quietLogger()})

	report, err := o.AnalyzeUnanalyzed(context.Background())
	var pe *model.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if report.Persisted != 1 || report.Processed != 2 {
		t.Errorf("unexpected report %+v", report)
	}
	if calls := set.Content.(*fakeProvider[signals.ContentLabel]).calls.Load(); calls != 2 {
		t.Errorf("expected the run to stop before the third post, content calls = %d", calls)
	}
}

func TestAnalyzeUnanalyzed_ConcurrentPersistsInOrder(t *testing.T) {
	st := &recordingStore{MemoryStore: store.NewMemoryStore()}
	contents := make([]string, 12)
	for i := range contents {
		contents[i] = "message numéro " + string(rune('a'+i))
	}
	ids := seed(t, st, contents...)

	report, err := newOrchestrator(st, nil, 4).AnalyzeUnanalyzed(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeUnanalyzed failed: %v", err)
	}
	if report.Persisted != len(ids) {
		t.Fatalf("unexpected report %+v", report)
	}
	for i, id := range st.saved {
		if id != ids[i] {
			t.Fatalf("write %d was post %d, want %d", i, id, ids[i])
		}
	}
}

func TestAnalyzeUnanalyzed_Canceled(t *testing.T) {
	st := store.NewMemoryStore()
	seed(t, st, "un", "deux")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newOrchestrator(st, nil, 1).AnalyzeUnanalyzed(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Persisted != 0 {
		t.Errorf("expected nothing persisted, got %+v", report)
	}
}

func TestAnalyzeUnanalyzed_EmotionFailureDoesNotSkip(t *testing.T) {
	st := store.NewMemoryStore()
	ids := seed(t, st, "Quelle joie")

	set := signals.Set{
		Content:  factual(),
		FakeNews: notFake(),
		Emotion: &fakeProvider[model.EmotionProfile]{fn: func(string) (model.EmotionProfile, error) {
			return nil, &model.InferenceError{Provider: "fake", Task: signals.TaskEmotion, Err: errors.New("model unavailable")}
		}},
	}
	o := NewOrchestrator(st, set, nil, nil, Options{Log: quietLogger()})

	report, err := o.AnalyzeUnanalyzed(context.Background())
	if err != nil || report.Persisted != 1 {
		t.Fatalf("report %+v, err %v", report, err)
	}
	a, err := st.GetAnalysis(context.Background(), ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if a.Emotions != nil {
		t.Errorf("expected no emotions, got %v", a.Emotions)
	}
}

func TestAnalyzeOne_Idempotent(t *testing.T) {
	st := store.NewMemoryStore()
	ids := seed(t, st, "Un seul message")

	content := factual()
	set := signals.Set{Content: content, FakeNews: notFake()}
	o := NewOrchestrator(st, set, nil, nil, Options{Log: quietLogger()})

	first, created, err := o.AnalyzeOne(context.Background(), ids[0])
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}
	second, created, err := o.AnalyzeOne(context.Background(), ids[0])
	if err != nil || created {
		t.Fatalf("second call: created=%v err=%v", created, err)
	}

	if first.ID != second.ID || first.GlobalReliabilityScore != second.GlobalReliabilityScore {
		t.Errorf("second call changed the analysis: %+v vs %+v", first, second)
	}
	if calls := content.calls.Load(); calls != 1 {
		t.Errorf("expected one inference, got %d", calls)
	}

	all, err := st.ListAnalyses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("expected exactly one analysis, got %d", len(all))
	}
}

func TestAnalyzeOne_UnknownPost(t *testing.T) {
	o := newOrchestrator(store.NewMemoryStore(), nil, 1)

	_, _, err := o.AnalyzeOne(context.Background(), 404)
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestReconcile(t *testing.T) {
	st := store.NewMemoryStore()
	ids := seed(t, st, "a", "b")
	ctx := context.Background()

	stale := &model.AnalysisResult{
		PostID:                   ids[0],
		ContentCategory:          model.ContentFactual,
		ContentConfidence:        0.9,
		FakeNewsConfidence:       0.1,
		ContentReliabilityScore:  78,
		ExternalReliabilityScore: 50,
		GlobalReliabilityScore:   78,
		FinalCategory:            model.CategoryDoubtful,
		ConfidenceLevel:          model.ConfidenceLow,
	}
	current := *stale
	current.PostID = ids[1]
	current.FinalCategory = model.CategoryReliable
	if err := st.SaveAnalysis(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveAnalysis(ctx, &current); err != nil {
		t.Fatal(err)
	}

	o := newOrchestrator(st, nil, 1)

	report, err := o.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if report.Examined != 2 || report.Corrected != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	change := report.Changes[0]
	if change.PostID != ids[0] || change.From != model.CategoryDoubtful || change.To != model.CategoryReliable {
		t.Errorf("unexpected change %+v", change)
	}

	again, err := o.Reconcile(ctx)
	if err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}
	if again.Corrected != 0 {
		t.Errorf("second run corrected %d rows, want 0", again.Corrected)
	}
}

func TestReconcile_MatchesLiveDecision(t *testing.T) {
	st := store.NewMemoryStore()
	seed(t, st, "un", "deux", "trois")
	lookup := &staticLookup{verdicts: map[int64]*model.FactCheckVerdict{
		2: {Rating: "faux", Source: "Le Figaro"},
		3: {Rating: "Vrai", Source: "AFP Factuel"},
	}}
	o := newOrchestrator(st, lookup, 1)

	if _, err := o.AnalyzeUnanalyzed(context.Background()); err != nil {
		t.Fatal(err)
	}
	report, err := o.Reconcile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Corrected != 0 {
		t.Errorf("reconciliation disagreed with the live decision: %+v", report.Changes)
	}
}

func TestAnalyzeUnanalyzed_BlueskyLink(t *testing.T) {
	st := store.NewMemoryStore()
	id, _, err := st.InsertPost(context.Background(), &model.Post{
		Title:   "Élections",
		Content: "Le taux de participation a augmenté",
		Link:    "at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.post/3k4duaz5vfs2b",
	})
	if err != nil {
		t.Fatal(err)
	}

	report, err := newOrchestrator(st, nil, 1).AnalyzeUnanalyzed(context.Background())
	if err != nil {
		t.Fatalf("AnalyzeUnanalyzed failed: %v", err)
	}
	if report.Persisted != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := st.GetAnalysis(context.Background(), id); err != nil {
		t.Errorf("expected an analysis for the post: %v", err)
	}
}

func TestAnalyzeUnanalyzed_FactCheckReadFailureAborts(t *testing.T) {
	st := &unreadableFactChecks{MemoryStore: store.NewMemoryStore()}
	ids := seed(t, st, "Le vaccin provoque l'autisme", "Un autre message")
	err := st.ReplaceFactChecks(context.Background(), ids[0], []model.FactCheckRecord{
		{ClaimText: "vaccin autisme", Rating: "Faux", SourceSite: "AFP Factuel", Similarity: 0.8},
	})
	if err != nil {
		t.Fatal(err)
	}

	content := factual()
	set := signals.Set{Content: content, FakeNews: notFake()}
	o := NewOrchestrator(st, set, factcheck.NewStoreLookup(st), nil, Options{Log: quietLogger()})

	report, err := o.AnalyzeUnanalyzed(context.Background())
	var pe *model.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if report.Persisted != 0 {
		t.Errorf("expected nothing persisted, got %+v", report)
	}
	if calls := content.calls.Load(); calls != 0 {
		t.Errorf("expected no inference before the failed read, content calls = %d", calls)
	}
	if _, err := st.GetAnalysis(context.Background(), ids[0]); !errors.Is(err, model.ErrAnalysisNotFound) {
		t.Errorf("expected no stored verdict, got %v", err)
	}

	_, _, err = o.AnalyzeOne(context.Background(), ids[0])
	if !errors.As(err, &pe) {
		t.Errorf("AnalyzeOne: expected PersistenceError, got %v", err)
	}
}

func TestAnalyzeUnanalyzed_ConcurrentPersistenceFailureAborts(t *testing.T) {
	st := &recordingStore{MemoryStore: store.NewMemoryStore(), failAfter: 1}
	contents := make([]string, 40)
	for i := range contents {
		contents[i] = "message numéro " + string(rune('a'+i))
	}
	seed(t, st, contents...)

	content := factual()
	set := signals.Set{Content: content, FakeNews: notFake()}
	o := NewOrchestrator(st, set, nil, nil, Options{Concurrency: 4, Log: quietLogger()})

	report, err := o.AnalyzeUnanalyzed(context.Background())
	var pe *model.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if report.Persisted != 1 || report.Processed != 2 {
		t.Errorf("unexpected report %+v", report)
	}
	if calls := content.calls.Load(); calls > 4 {
		t.Errorf("expected inference to stop with the first window, content calls = %d", calls)
	}
}

func TestAnalyzeUnanalyzed_DuplicateAborts(t *testing.T) {
	base := store.NewMemoryStore()
	ids := seed(t, base, "un", "deux", "trois")
	st := &racingStore{MemoryStore: base, racePost: ids[1]}

	report, err := newOrchestrator(st, nil, 1).AnalyzeUnanalyzed(context.Background())
	var dup *model.DuplicateAnalysisError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateAnalysisError, got %v", err)
	}
	if dup.PostID != ids[1] {
		t.Errorf("duplicate for post %d, want %d", dup.PostID, ids[1])
	}
	if report.Processed != 2 || report.Persisted != 1 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestAnalyzeOne_DuplicateWrite(t *testing.T) {
	base := store.NewMemoryStore()
	ids := seed(t, base, "Un seul message")
	st := &racingStore{MemoryStore: base, racePost: ids[0]}

	_, created, err := newOrchestrator(st, nil, 1).AnalyzeOne(context.Background(), ids[0])
	var dup *model.DuplicateAnalysisError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateAnalysisError, got %v", err)
	}
	if created {
		t.Error("created must be false on a duplicate write")
	}
}
