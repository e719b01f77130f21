package bayes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/classify"
	"github.com/lankasignal/lankasignal/internal/store"
	"github.com/lankasignal/lankasignal/internal/window"
)

func testTable(t *testing.T) *category.Table {
	t.Helper()
	tbl, err := category.NewTable([]category.Entry{
		{Name: "finance", Keywords: []category.Keyword{{Term: "bank", Weight: 2}, {Term: "loan", Weight: 2}, {Term: "interest rate", Weight: 2}}},
		{Name: "tourism", Keywords: []category.Keyword{{Term: "tourist", Weight: 2}, {Term: "hotel", Weight: 2}, {Term: "arrivals", Weight: 2}}},
		{Name: "sports", Keywords: []category.Keyword{{Term: "cricket", Weight: 2}, {Term: "match", Weight: 2}}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func newClassifier(t *testing.T, path string) *Classifier {
	t.Helper()
	return New(classify.NewScorer(testTable(t)), path)
}

func TestPredictFallsBackWhenUntrained(t *testing.T) {
	c := newClassifier(t, "")
	if c.Trained() {
		t.Fatal("new classifier should be untrained")
	}
	got := c.Predict("Bank cuts loan rates")
	if got.Category != "finance" || got.Confidence != 1 {
		t.Errorf("expected keyword fallback (finance, 1), got %+v", got)
	}
	got = c.Predict("Nothing relevant here")
	if got.Category != category.General || got.Confidence != 0 {
		t.Errorf("expected (general, 0), got %+v", got)
	}
}

func TestTrainSynthetic(t *testing.T) {
	c := newClassifier(t, "")
	res := c.Train(nil)
	if !res.OK {
		t.Fatalf("training failed: %s", res.Reason)
	}
	// 8 examples per keyword: finance 24, tourism 24, sports 16
	if res.TrainSamples+res.TestSamples != 64 {
		t.Errorf("expected 64 samples, got %d+%d", res.TrainSamples, res.TestSamples)
	}
	if res.TestSamples != 13 {
		t.Errorf("expected 13 held out samples, got %d", res.TestSamples)
	}
	if len(res.Categories) != 3 {
		t.Errorf("expected 3 categories, got %v", res.Categories)
	}
	if res.Accuracy < 0 || res.Accuracy > 1 {
		t.Errorf("accuracy out of range: %v", res.Accuracy)
	}
	if !c.Trained() {
		t.Error("expected classifier to be trained")
	}

	got := c.Predict("Cricket match tonight")
	if got.Category != "sports" {
		t.Errorf("expected sports, got %s", got.Category)
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Errorf("confidence out of range: %v", got.Confidence)
	}
}

func TestTrainSingleCategoryFails(t *testing.T) {
	tbl, err := category.NewTable([]category.Entry{
		{Name: "sports", Keywords: []category.Keyword{{Term: "cricket"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	c := New(classify.NewScorer(tbl), "")
	res := c.Train(nil)
	if res.OK {
		t.Fatal("expected training to fail with one category")
	}
	if res.Reason == "" {
		t.Error("expected a reason")
	}
	if c.Trained() {
		t.Error("failed training must not activate a model")
	}
}

func TestTrainIgnoresGeneralAndUnknownLabels(t *testing.T) {
	c := newClassifier(t, "")
	res := c.Train([]Example{
		{Text: "Hotel occupancy climbs", Label: "tourism"},
		{Text: "Weather is mild", Label: category.General},
		{Text: "Rain expected", Label: "weather"},
		{Text: "", Label: "finance"},
	})
	if !res.OK {
		t.Fatalf("training failed: %s", res.Reason)
	}
	if res.RealExamples != 1 {
		t.Errorf("expected 1 real example, got %d", res.RealExamples)
	}
}

func TestPredictBatchMatchesPredict(t *testing.T) {
	c := newClassifier(t, "")
	c.Train(nil)
	titles := []string{"Tourist arrivals rise", "Bank loan demand", "Cricket match"}
	batch := c.PredictBatch(titles)
	if len(batch) != len(titles) {
		t.Fatalf("expected %d results, got %d", len(titles), len(batch))
	}
	for i, title := range titles {
		if single := c.Predict(title); single != batch[i] {
			t.Errorf("%q: batch %+v != single %+v", title, batch[i], single)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "model.json")
	c := newClassifier(t, path)
	if res := c.Train(nil); !res.OK {
		t.Fatalf("training failed: %s", res.Reason)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected model file: %v", err)
	}

	loaded := newClassifier(t, path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Trained() {
		t.Fatal("expected loaded classifier to be trained")
	}
	for _, title := range []string{"Hotel arrivals", "Interest rate cut", "Cricket"} {
		if a, b := c.Predict(title), loaded.Predict(title); a != b {
			t.Errorf("%q: original %+v, loaded %+v", title, a, b)
		}
	}
	if loaded.Info().Accuracy != c.Info().Accuracy {
		t.Error("expected accuracy to survive a round trip")
	}
}

func TestLoadMissing(t *testing.T) {
	c := newClassifier(t, filepath.Join(t.TempDir(), "none.json"))
	err := c.Load()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestLoadRejectsForeignLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if res := newClassifier(t, path).Train(nil); !res.OK {
		t.Fatal(res.Reason)
	}

	other, err := category.NewTable([]category.Entry{
		{Name: "finance", Keywords: []category.Keyword{{Term: "bank"}}},
		{Name: "health", Keywords: []category.Keyword{{Term: "hospital"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	c := New(classify.NewScorer(other), path)
	if err := c.Load(); err == nil {
		t.Error("expected labels outside the table to be rejected")
	}
	if c.Trained() {
		t.Error("rejected model must not be active")
	}
}

type fakeSource struct {
	articles []store.Article
	got      window.Window
}

func (f *fakeSource) QueryWindow(w window.Window, _ []string) ([]store.Article, error) {
	f.got = w
	return f.articles, nil
}

func catPtr(c category.Category) *category.Category { return &c }

func TestTrainFromStore(t *testing.T) {
	src := &fakeSource{articles: []store.Article{
		{Title: "Hotel bookings surge", Category: catPtr("tourism"), Processed: true},
		{Title: "Bank profits up", Category: catPtr("finance"), Processed: true},
		{Title: "Rainy week ahead", Category: catPtr(category.General), Processed: true},
		{Title: "Unlabelled headline", Processed: false},
	}}
	c := newClassifier(t, "")
	res := c.TrainFromStore(src, 0)
	if !res.OK {
		t.Fatalf("training failed: %s", res.Reason)
	}
	if res.RealExamples != 2 {
		t.Errorf("expected 2 real examples, got %d", res.RealExamples)
	}
	if src.got.Older != DefaultLookback {
		t.Errorf("expected default lookback %v, got %v", DefaultLookback, src.got.Older)
	}
}

type failingSource struct{ err error }

func (f failingSource) QueryWindow(window.Window, []string) ([]store.Article, error) {
	return nil, f.err
}

func TestFailedTrainingKeepsPriorModel(t *testing.T) {
	c := newClassifier(t, "")
	if res := c.Train(nil); !res.OK {
		t.Fatalf("training failed: %s", res.Reason)
	}
	before := c.Info()

	res := c.TrainFromStore(failingSource{err: errors.New("db down")}, 0)
	if res.OK {
		t.Fatal("expected training to fail")
	}
	if res.Reason == "" {
		t.Error("expected a reason for the failure")
	}
	if !c.Trained() {
		t.Fatal("prior model must stay active after a failed run")
	}
	after := c.Info()
	if !after.TrainedAt.Equal(before.TrainedAt) || after.Vocabulary != before.Vocabulary {
		t.Errorf("model changed: before %+v, after %+v", before, after)
	}
	if got := c.Predict("Bank cuts loan rates"); got.Category != "finance" {
		t.Errorf("expected finance from the prior model, got %+v", got)
	}
}

func TestEnsureTrained(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	c := newClassifier(t, path)
	res := c.EnsureTrained(nil, 0)
	if !res.OK || res.Loaded {
		t.Fatalf("expected a fresh training run, got %+v", res)
	}

	again := newClassifier(t, path)
	res = again.EnsureTrained(nil, 0)
	if !res.OK || !res.Loaded {
		t.Errorf("expected the saved model to be loaded, got %+v", res)
	}
}

func TestConcurrentPredictDuringTrain(t *testing.T) {
	c := newClassifier(t, "")
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := c.Predict(fmt.Sprintf("Hotel %d bank %d", i, j))
				if got.Confidence < 0 || got.Confidence > 1 {
					t.Errorf("confidence out of range: %v", got.Confidence)
				}
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Train(nil)
	}()
	wg.Wait()
}
