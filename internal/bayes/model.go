package bayes

import (
	"errors"
	"math"
	"sort"
)

const (
	maxFeatures = 5000
	alpha       = 0.1
)

type feature struct {
	idx int
	val float64
}

// Model is a TF-IDF vectorizer feeding a multinomial naive Bayes
// classifier. All fields are exported for JSON persistence.
type Model struct {
	Vocabulary     map[string]int `json:"vocabulary"`
	IDF            []float64      `json:"idf"`
	Classes        []string       `json:"classes"`
	ClassLogPrior  []float64      `json:"class_log_prior"`
	FeatureLogProb [][]float64    `json:"feature_log_prob"`
}

var errEmptyCorpus = errors.New("empty training corpus")

// fit trains a model on preprocessed texts and their labels.
func fit(texts, labels []string) (*Model, error) {
	if len(texts) == 0 || len(texts) != len(labels) {
		return nil, errEmptyCorpus
	}

	docs := make([][]string, len(texts))
	totals := map[string]int{}
	for i, t := range texts {
		docs[i] = analyze(t)
		for _, term := range docs[i] {
			totals[term]++
		}
	}
	if len(totals) == 0 {
		return nil, errors.New("training corpus has no usable terms")
	}

	m := &Model{Vocabulary: buildVocabulary(totals)}

	df := make([]int, len(m.Vocabulary))
	for _, doc := range docs {
		seen := map[int]bool{}
		for _, term := range doc {
			if j, ok := m.Vocabulary[term]; ok && !seen[j] {
				seen[j] = true
				df[j]++
			}
		}
	}
	n := float64(len(docs))
	m.IDF = make([]float64, len(df))
	for j, d := range df {
		m.IDF[j] = math.Log((1+n)/(1+float64(d))) + 1
	}

	classIndex := map[string]int{}
	for _, l := range labels {
		classIndex[l] = 0
	}
	for l := range classIndex {
		m.Classes = append(m.Classes, l)
	}
	sort.Strings(m.Classes)
	for i, c := range m.Classes {
		classIndex[c] = i
	}

	counts := make([]float64, len(m.Classes))
	featureCounts := make([][]float64, len(m.Classes))
	for i := range featureCounts {
		featureCounts[i] = make([]float64, len(m.Vocabulary))
	}
	for i, doc := range docs {
		c := classIndex[labels[i]]
		counts[c]++
		for _, f := range m.vectorize(doc) {
			featureCounts[c][f.idx] += f.val
		}
	}

	m.ClassLogPrior = make([]float64, len(m.Classes))
	m.FeatureLogProb = make([][]float64, len(m.Classes))
	v := float64(len(m.Vocabulary))
	for c := range m.Classes {
		m.ClassLogPrior[c] = math.Log(counts[c] / n)
		sum := 0.0
		for _, fc := range featureCounts[c] {
			sum += fc
		}
		denom := math.Log(sum + alpha*v)
		row := make([]float64, len(m.Vocabulary))
		for j, fc := range featureCounts[c] {
			row[j] = math.Log(fc+alpha) - denom
		}
		m.FeatureLogProb[c] = row
	}
	return m, nil
}

// buildVocabulary keeps the maxFeatures most frequent terms and indexes them
// alphabetically.
func buildVocabulary(totals map[string]int) map[string]int {
	terms := make([]string, 0, len(totals))
	for t := range totals {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if totals[terms[i]] != totals[terms[j]] {
			return totals[terms[i]] > totals[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)
	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return vocab
}

// vectorize returns the L2-normalized TF-IDF vector of an analyzed document.
func (m *Model) vectorize(terms []string) []feature {
	tf := map[int]float64{}
	for _, term := range terms {
		if j, ok := m.Vocabulary[term]; ok {
			tf[j]++
		}
	}
	if len(tf) == 0 {
		return nil
	}
	out := make([]feature, 0, len(tf))
	for j, count := range tf {
		out = append(out, feature{idx: j, val: count * m.IDF[j]})
	}
	// Sorted first so the norm sums in a stable order.
	sort.Slice(out, func(a, b int) bool { return out[a].idx < out[b].idx })
	norm := 0.0
	for _, f := range out {
		norm += f.val * f.val
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i].val /= norm
	}
	return out
}

// predict returns the most probable class and its posterior probability.
func (m *Model) predict(text string) (string, float64) {
	x := m.vectorize(analyze(preprocess(text)))

	jll := make([]float64, len(m.Classes))
	maxLL := math.Inf(-1)
	best := 0
	for c := range m.Classes {
		ll := m.ClassLogPrior[c]
		for _, f := range x {
			ll += f.val * m.FeatureLogProb[c][f.idx]
		}
		jll[c] = ll
		if ll > maxLL {
			maxLL = ll
			best = c
		}
	}

	sum := 0.0
	for _, ll := range jll {
		sum += math.Exp(ll - maxLL)
	}
	return m.Classes[best], 1 / sum
}

func (m *Model) valid() bool {
	if m == nil || len(m.Classes) == 0 || len(m.ClassLogPrior) != len(m.Classes) || len(m.FeatureLogProb) != len(m.Classes) {
		return false
	}
	if len(m.IDF) != len(m.Vocabulary) {
		return false
	}
	for _, row := range m.FeatureLogProb {
		if len(row) != len(m.Vocabulary) {
			return false
		}
	}
	return true
}
