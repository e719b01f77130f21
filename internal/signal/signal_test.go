package signal

import (
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/store"
	"github.com/lankasignal/lankasignal/internal/window"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetClock(func() time.Time { return testNow })
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() Config {
	return Config{
		Risks: RiskTiers{
			High:   []string{"crisis", "collapse", "shortage"},
			Medium: []string{"protest", "strike", "delay"},
			Low:    []string{"issue", "slow"},
		},
		Opportunities:          []string{"launch", "growth", "investment", "deal"},
		LookbackHours:          24,
		TrendingThreshold:      3,
		TrendingTopN:           20,
		TrendingMinOccurrences: 2,
		AnomalyMultiplier:      2.5,
		RecentHours:            1,
		BaselineHours:          24,
		CategorySpikeFloor:     3,
	}
}

var seq int

func add(t *testing.T, db *store.Store, title string, age time.Duration, cat category.Category, sentiment float64) {
	t.Helper()
	seq++
	id, _, err := db.Add(store.NewArticle{
		Title:       title,
		URL:         fmt.Sprintf("https://news.lk/%d", seq),
		Source:      "Economy Next",
		CollectedAt: testNow.Add(-age),
	})
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	if cat != "" {
		if err := db.MarkProcessed(id, cat, sentiment); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDetectRisksTiering(t *testing.T) {
	db := testDB(t)
	add(t, db, "Minor issue at customs", 1*time.Hour, "", 0)
	add(t, db, "Fuel shortage sparks strike", 2*time.Hour, "energy", -0.4)
	add(t, db, "Port workers protest", 3*time.Hour, "", 0)
	add(t, db, "Currency crisis deepens", 4*time.Hour, "finance", -0.6)
	add(t, db, "Weather fine today", 5*time.Hour, "", 0)

	risks, err := New(db, testConfig()).DetectRisks(window.Last(24), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(risks) != 4 {
		t.Fatalf("expected 4 risks, got %d: %+v", len(risks), risks)
	}
	wantTitles := []string{"Fuel shortage sparks strike", "Currency crisis deepens", "Port workers protest", "Minor issue at customs"}
	wantSev := []Severity{SeverityHigh, SeverityHigh, SeverityMedium, SeverityLow}
	for i := range risks {
		if risks[i].Description != wantTitles[i] || risks[i].Severity != wantSev[i] {
			t.Errorf("risk %d: expected %s/%s, got %s/%s", i, wantSev[i], wantTitles[i], risks[i].Severity, risks[i].Description)
		}
	}
	if risks[0].Keyword != "shortage" {
		t.Errorf("expected keyword shortage, got %s", risks[0].Keyword)
	}
	if risks[2].Category != category.General {
		t.Errorf("unprocessed article should report general, got %s", risks[2].Category)
	}
}

func TestDetectOpportunitiesSortedBySentiment(t *testing.T) {
	db := testDB(t)
	add(t, db, "Startup launch in Colombo", 1*time.Hour, "", 0)
	add(t, db, "Export growth accelerates", 2*time.Hour, "economic", 0.6)
	add(t, db, "New investment deal", 3*time.Hour, "business", 0.2)
	add(t, db, "Budget debate", 4*time.Hour, "political", 0.9)

	opps, err := New(db, testConfig()).DetectOpportunities(window.Last(24), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(opps) != 3 {
		t.Fatalf("expected 3 opportunities, got %+v", opps)
	}
	want := []float64{0.6, 0.2, 0}
	for i, o := range opps {
		if o.Sentiment != want[i] {
			t.Errorf("opportunity %d: expected sentiment %v, got %v", i, want[i], o.Sentiment)
		}
	}
	if opps[1].Keyword != "investment" {
		t.Errorf("expected first listed keyword to win, got %s", opps[1].Keyword)
	}
}

func TestDetectTrendingTopics(t *testing.T) {
	db := testDB(t)
	add(t, db, "Port expansion begins", 1*time.Hour, "", 0)
	add(t, db, "Port workers protest", 2*time.Hour, "", 0)
	add(t, db, "New port deal signed", 3*time.Hour, "", 0)

	d := New(db, testConfig())
	trends, err := d.DetectTrendingTopics(window.Last(24), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []Trend{{Topic: "port", Count: 3, Timeframe: "24h->0h"}}
	if !reflect.DeepEqual(trends, want) {
		t.Errorf("expected %v, got %v", want, trends)
	}

	cfg := testConfig()
	cfg.TrendingThreshold = 4
	trends, err = New(db, cfg).DetectTrendingTopics(window.Between(0, 24), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(trends) != 0 {
		t.Errorf("expected no trends above threshold 4, got %v", trends)
	}
}

// seedVolume stores recent articles in the last hour and fills the rest of
// the baseline window up to total, one per hour.
func seedVolume(t *testing.T, db *store.Store, recent, total int, cat category.Category) {
	t.Helper()
	for i := 0; i < recent; i++ {
		add(t, db, "Recent story", time.Duration(i+1)*10*time.Minute, cat, 0)
	}
	for i := 0; i < total-recent; i++ {
		add(t, db, "Older story", time.Duration(i+2)*time.Hour, "", 0)
	}
}

func TestDetectAnomaliesHighVolume(t *testing.T) {
	db := testDB(t)
	seedVolume(t, db, 4, 24, "")
	anomalies, err := New(db, testConfig()).DetectAnomalies(1, 24)
	if err != nil {
		t.Fatal(err)
	}
	if len(anomalies) != 1 || anomalies[0].Type != HighVolume {
		t.Fatalf("expected one high_volume anomaly, got %+v", anomalies)
	}
	if anomalies[0].Severity != SeverityMedium || anomalies[0].Recent != 4 || anomalies[0].BaselineAvg != 1 {
		t.Errorf("unexpected anomaly: %+v", anomalies[0])
	}
}

func TestDetectAnomaliesBelowThreshold(t *testing.T) {
	db := testDB(t)
	seedVolume(t, db, 2, 24, "")
	anomalies, err := New(db, testConfig()).DetectAnomalies(1, 24)
	if err != nil {
		t.Fatal(err)
	}
	if len(anomalies) != 0 {
		t.Errorf("expected no anomalies, got %+v", anomalies)
	}
}

func TestDetectAnomaliesDivisorFollowsBaseline(t *testing.T) {
	db := testDB(t)
	// 4 in the last hour plus 8 more inside 6h: 12/6 = 2/hour, threshold 5
	for i := 0; i < 4; i++ {
		add(t, db, "Recent", time.Duration(i+1)*10*time.Minute, "", 0)
	}
	for i := 0; i < 8; i++ {
		add(t, db, "Older", 90*time.Minute+time.Duration(i)*30*time.Minute, "", 0)
	}
	anomalies, err := New(db, testConfig()).DetectAnomalies(1, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(anomalies) != 0 {
		t.Errorf("expected no anomaly with a 6h divisor, got %+v", anomalies)
	}
}

func TestDetectAnomaliesCategorySpike(t *testing.T) {
	db := testDB(t)
	seedVolume(t, db, 4, 24, "finance")
	anomalies, err := New(db, testConfig()).DetectAnomalies(1, 24)
	if err != nil {
		t.Fatal(err)
	}
	var spike *Anomaly
	for i := range anomalies {
		if anomalies[i].Type == CategorySpike {
			spike = &anomalies[i]
		}
	}
	if spike == nil {
		t.Fatalf("expected a category spike, got %+v", anomalies)
	}
	if spike.Category != "finance" || spike.Severity != SeverityLow || spike.Recent != 4 {
		t.Errorf("unexpected spike: %+v", spike)
	}

	cfg := testConfig()
	cfg.CategorySpikeFloor = 5
	anomalies, err = New(db, cfg).DetectAnomalies(1, 24)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range anomalies {
		if a.Type == CategorySpike {
			t.Errorf("floor of 5 should suppress the spike, got %+v", a)
		}
	}
}

func TestDetectAnomaliesZeroBaseline(t *testing.T) {
	db := testDB(t)
	seedVolume(t, db, 4, 4, "")
	anomalies, err := New(db, testConfig()).DetectAnomalies(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(anomalies) != 0 {
		t.Errorf("expected no anomalies for an empty baseline window, got %+v", anomalies)
	}
}

func TestGenerateAllIdempotent(t *testing.T) {
	db := testDB(t)
	add(t, db, "Port expansion deal", 1*time.Hour, "infrastructure", 0.3)
	add(t, db, "Port workers strike", 2*time.Hour, "social", -0.2)
	add(t, db, "Port crisis talks", 3*time.Hour, "infrastructure", -0.5)
	add(t, db, "Tourism growth", 4*time.Hour, "tourism", 0.7)

	d := New(db, testConfig())
	first, err := d.GenerateAll()
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.GenerateAll()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical bundles:\n%+v\n%+v", first, second)
	}
	if len(first.Risks) != 2 || len(first.Opportunities) != 2 || len(first.Trending) != 1 {
		t.Errorf("unexpected bundle: %+v", first)
	}

	sigs := first.Signals()
	if len(sigs) != len(first.Risks)+len(first.Opportunities)+len(first.Trending)+len(first.Anomalies) {
		t.Errorf("Signals() dropped records: %d", len(sigs))
	}
	for _, s := range sigs {
		if _, err := db.AddSignal(s); err != nil {
			t.Fatalf("AddSignal: %v", err)
		}
	}
	db.SetClock(func() time.Time { return testNow.Add(time.Minute) })
	stored, err := db.RecentSignals(TypeRisk, window.Last(24))
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Errorf("expected 2 stored risks, got %d", len(stored))
	}
}

func TestPersistedSignalsUseDetectionTime(t *testing.T) {
	db := testDB(t)
	add(t, db, "Fuel shortage deepens", 30*time.Hour, "energy", -0.6)
	add(t, db, "Solar investment announced", 20*time.Hour, "energy", 0.7)

	b, err := New(db, testConfig()).Generate(window.Last(48), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range b.Signals() {
		if _, err := db.AddSignal(s); err != nil {
			t.Fatalf("AddSignal: %v", err)
		}
	}
	// history is read a minute after the run
	db.SetClock(func() time.Time { return testNow.Add(time.Minute) })

	risks, err := db.RecentSignals(TypeRisk, window.Last(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(risks) != 1 {
		t.Fatalf("expected the risk inside the last hour, got %d", len(risks))
	}
	if !risks[0].DetectedAt.Equal(testNow) {
		t.Errorf("expected detected_at %v, got %v", testNow, risks[0].DetectedAt)
	}
	want := testNow.Add(-30 * time.Hour).Format(time.RFC3339)
	if got := risks[0].Metadata["article_at"]; got != want {
		t.Errorf("expected article_at %s, got %v", want, got)
	}

	opps, err := db.RecentSignals(TypeOpportunity, window.Last(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(opps) != 1 {
		t.Errorf("expected the opportunity inside the last hour, got %d", len(opps))
	}
}

func TestGenerateWindowAndSources(t *testing.T) {
	db := testDB(t)
	add(t, db, "Port expansion deal", 1*time.Hour, "infrastructure", 0.3)
	add(t, db, "Port workers strike", 2*time.Hour, "social", -0.2)
	add(t, db, "Port crisis talks", 3*time.Hour, "infrastructure", -0.5)

	d := New(db, testConfig())
	b, err := d.Generate(window.Last(2.5), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Risks) != 1 || b.Risks[0].Severity != SeverityMedium {
		t.Errorf("expected only the strike inside 2.5h, got %+v", b.Risks)
	}
	if len(b.Opportunities) != 1 {
		t.Errorf("expected 1 opportunity, got %+v", b.Opportunities)
	}

	b, err = d.Generate(window.Last(24), []string{"Daily FT"})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Risks) != 0 || len(b.Opportunities) != 0 || len(b.Trending) != 0 {
		t.Errorf("expected nothing for an absent source, got %+v", b)
	}
}
