// Package bayes is the statistical title classifier: a TF-IDF vectorizer over
// unigrams and bigrams feeding a multinomial naive Bayes model, bootstrapped
// from the category keyword table and optionally real processed articles.
package bayes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/classify"
	"github.com/lankasignal/lankasignal/internal/store"
	"github.com/lankasignal/lankasignal/internal/window"
)

const artifactVersion = 1

// DefaultLookback is how far back TrainFromStore reads labelled articles.
const DefaultLookback = 720.0

// ArticleSource supplies previously processed articles for training.
type ArticleSource interface {
	QueryWindow(w window.Window, sources []string) ([]store.Article, error)
}

// TrainResult reports the outcome of a training run. A failed run carries
// OK=false and a Reason; it never panics or returns an error.
type TrainResult struct {
	OK           bool                `json:"ok"`
	Reason       string              `json:"reason,omitempty"`
	Accuracy     float64             `json:"accuracy"`
	TrainSamples int                 `json:"train_samples"`
	TestSamples  int                 `json:"test_samples"`
	RealExamples int                 `json:"real_examples"`
	Categories   []category.Category `json:"categories"`
	Loaded       bool                `json:"loaded,omitempty"`
}

// Info describes the active model.
type Info struct {
	Trained    bool                `json:"trained"`
	Accuracy   float64             `json:"accuracy"`
	TrainedAt  time.Time           `json:"trained_at"`
	Categories []category.Category `json:"categories"`
	Vocabulary int                 `json:"vocabulary"`
	Path       string              `json:"path,omitempty"`
}

// artifact is the persisted form of a trained model.
type artifact struct {
	Version   int       `json:"version"`
	Accuracy  float64   `json:"accuracy"`
	TrainedAt time.Time `json:"trained_at"`
	Model     *Model    `json:"model"`
}

// Classifier is safe for concurrent use. Predictions read the current model
// without locking; training builds a new model and swaps it in.
type Classifier struct {
	scorer  *classify.Scorer
	path    string
	logger  *slog.Logger
	now     func() time.Time
	trainMu sync.Mutex
	current atomic.Pointer[artifact]
}

// New returns an untrained classifier. path is where the model artifact is
// saved and loaded; empty disables persistence. Until a model is trained
// predictions come from scorer.
func New(scorer *classify.Scorer, path string) *Classifier {
	return &Classifier{
		scorer: scorer,
		path:   path,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// SetLogger replaces the classifier's logger.
func (c *Classifier) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

func (c *Classifier) table() *category.Table {
	return c.scorer.Table()
}

// Trained reports whether a model is active.
func (c *Classifier) Trained() bool {
	return c.current.Load() != nil
}

// Info returns details about the active model.
func (c *Classifier) Info() Info {
	a := c.current.Load()
	if a == nil {
		return Info{Path: c.path}
	}
	cats := make([]category.Category, len(a.Model.Classes))
	for i, cl := range a.Model.Classes {
		cats[i] = category.Category(cl)
	}
	return Info{
		Trained:    true,
		Accuracy:   a.Accuracy,
		TrainedAt:  a.TrainedAt,
		Categories: cats,
		Vocabulary: len(a.Model.Vocabulary),
		Path:       c.path,
	}
}

// Predict classifies a title. Without a trained model it returns the
// unguarded keyword decision.
func (c *Classifier) Predict(title string) classify.Result {
	a := c.current.Load()
	if a == nil {
		return c.scorer.Score(title)
	}
	label, prob := a.Model.predict(title)
	return classify.Result{Category: c.table().Sanitize(category.Category(label)), Confidence: prob}
}

// PredictBatch classifies titles against a single model snapshot.
func (c *Classifier) PredictBatch(titles []string) []classify.Result {
	a := c.current.Load()
	out := make([]classify.Result, len(titles))
	for i, t := range titles {
		if a == nil {
			out[i] = c.scorer.Score(t)
			continue
		}
		label, prob := a.Model.predict(t)
		out[i] = classify.Result{Category: c.table().Sanitize(category.Category(label)), Confidence: prob}
	}
	return out
}

// Train fits a new model on synthetic keyword examples plus extra. Labels
// outside the category table and general labels are ignored. The previous
// model stays active if training fails.
func (c *Classifier) Train(extra []Example) TrainResult {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()
	return c.train(extra)
}

func (c *Classifier) train(extra []Example) TrainResult {
	table := c.table()
	examples := synthesize(table)
	realCount := 0
	for _, e := range extra {
		if e.Label == category.General || !table.Contains(e.Label) || preprocess(e.Text) == "" {
			continue
		}
		examples = append(examples, e)
		realCount++
	}

	if len(examples) == 0 {
		return TrainResult{Reason: "no training examples"}
	}
	counts := map[category.Category]int{}
	for _, e := range examples {
		counts[e.Label]++
	}
	if len(counts) < 2 {
		return TrainResult{Reason: fmt.Sprintf("need at least 2 categories, got %d", len(counts))}
	}
	for _, cat := range table.Categories() {
		if n, ok := counts[cat]; ok && n < 2 {
			return TrainResult{Reason: fmt.Sprintf("category %s has %d example, need at least 2", cat, n)}
		}
	}

	trainSet, testSet := stratifiedSplit(examples)
	texts := make([]string, len(trainSet))
	labels := make([]string, len(trainSet))
	for i, e := range trainSet {
		texts[i] = preprocess(e.Text)
		labels[i] = string(e.Label)
	}
	model, err := fit(texts, labels)
	if err != nil {
		return TrainResult{Reason: err.Error()}
	}

	correct := 0
	for _, e := range testSet {
		if label, _ := model.predict(e.Text); label == string(e.Label) {
			correct++
		}
	}
	accuracy := 0.0
	if len(testSet) > 0 {
		accuracy = float64(correct) / float64(len(testSet))
	}

	a := &artifact{Version: artifactVersion, Accuracy: accuracy, TrainedAt: c.now().UTC(), Model: model}
	if c.path != "" {
		if err := c.save(a); err != nil {
			c.logger.Warn("saving model failed", "path", c.path, "error", err)
		}
	}
	c.current.Store(a)

	cats := make([]category.Category, len(model.Classes))
	for i, cl := range model.Classes {
		cats[i] = category.Category(cl)
	}
	c.logger.Info("model trained",
		"accuracy", accuracy,
		"train_samples", len(trainSet),
		"test_samples", len(testSet),
		"real_examples", realCount,
	)
	return TrainResult{
		OK:           true,
		Accuracy:     accuracy,
		TrainSamples: len(trainSet),
		TestSamples:  len(testSet),
		RealExamples: realCount,
		Categories:   cats,
	}
}

// TrainFromStore trains on synthetic examples plus articles processed in the
// last lookback hours that carry a non-general category.
func (c *Classifier) TrainFromStore(src ArticleSource, lookback float64) TrainResult {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()
	return c.trainFromStore(src, lookback)
}

func (c *Classifier) trainFromStore(src ArticleSource, lookback float64) TrainResult {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	articles, err := src.QueryWindow(window.Last(lookback), nil)
	if err != nil {
		return TrainResult{Reason: fmt.Sprintf("loading articles: %v", err)}
	}
	var extra []Example
	for _, a := range articles {
		if !a.Processed || a.Category == nil {
			continue
		}
		extra = append(extra, Example{Text: a.Title, Label: *a.Category})
	}
	return c.train(extra)
}

// EnsureTrained makes a model active: it keeps the current one, loads a saved
// artifact, or trains from src, in that order.
func (c *Classifier) EnsureTrained(src ArticleSource, lookback float64) TrainResult {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	if a := c.current.Load(); a != nil {
		return c.loadedResult(a)
	}
	if c.path != "" {
		a, err := c.load()
		switch {
		case err == nil:
			c.current.Store(a)
			return c.loadedResult(a)
		case errors.Is(err, os.ErrNotExist):
		default:
			c.logger.Warn("ignoring saved model", "path", c.path, "error", err)
		}
	}
	if src == nil {
		return c.train(nil)
	}
	return c.trainFromStore(src, lookback)
}

func (c *Classifier) loadedResult(a *artifact) TrainResult {
	cats := make([]category.Category, len(a.Model.Classes))
	for i, cl := range a.Model.Classes {
		cats[i] = category.Category(cl)
	}
	return TrainResult{OK: true, Loaded: true, Accuracy: a.Accuracy, Categories: cats}
}

// Load activates the saved artifact. It returns an error wrapping
// os.ErrNotExist when nothing has been saved.
func (c *Classifier) Load() error {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()
	a, err := c.load()
	if err != nil {
		return err
	}
	c.current.Store(a)
	return nil
}

func (c *Classifier) load() (*artifact, error) {
	if c.path == "" {
		return nil, fmt.Errorf("no model path: %w", os.ErrNotExist)
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("model version %d, want %d", a.Version, artifactVersion)
	}
	if !a.Model.valid() {
		return nil, errors.New("model artifact is malformed")
	}
	for _, cl := range a.Model.Classes {
		cat := category.Category(cl)
		if cat == category.General || !c.table().Contains(cat) {
			return nil, fmt.Errorf("model label %q is not in the category table", cl)
		}
	}
	return &a, nil
}

// save writes the artifact to a temp file and renames it into place so
// readers never see a partial model.
func (c *Classifier) save(a *artifact) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("creating temp model: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing model: %w", err)
	}
	return os.Rename(tmp.Name(), c.path)
}
