package bayes

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/lankasignal/lankasignal/internal/category"
)

const (
	splitSeed    = 42
	testFraction = 0.2
)

var templates = []string{
	"%s sector shows growth in latest report",
	"Government announces new %s policy",
	"%s industry faces challenges this quarter",
	"Experts discuss %s developments",
	"Latest updates on %s",
	"%s figures released for the month",
	"Officials comment on %s outlook",
	"New measures introduced for %s",
	"Analysts review %s performance",
	"Stakeholders meet to discuss %s",
	"%s concerns raised in parliament",
	"Ministry outlines %s plan",
	"%s sector expected to recover",
	"Report highlights %s trends",
	"%s initiative launched island wide",
	"Survey finds change in %s",
	"Local firms respond to %s changes",
	"%s talks continue in Colombo",
	"Committee appointed to study %s",
	"Regional impact of %s examined",
}

// Example is a labelled training text.
type Example struct {
	Text  string
	Label category.Category
}

// synthesize generates keyword-based examples for every category. Heavier
// keywords produce more examples.
func synthesize(table *category.Table) []Example {
	var out []Example
	for _, cat := range table.Categories() {
		for _, kw := range table.Keywords(cat) {
			n := int(kw.Weight * 4)
			if n < 4 {
				n = 4
			}
			if n > len(templates) {
				n = len(templates)
			}
			for _, tmpl := range templates[:n] {
				out = append(out, Example{Text: fmt.Sprintf(tmpl, kw.Term), Label: cat})
			}
		}
	}
	return out
}

// stratifiedSplit holds out testFraction of every label with a fixed seed.
// Each label keeps at least one example on both sides.
func stratifiedSplit(examples []Example) (train, test []Example) {
	byLabel := map[category.Category][]int{}
	for i, e := range examples {
		byLabel[e.Label] = append(byLabel[e.Label], i)
	}
	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, string(l))
	}
	sort.Strings(labels)

	rng := rand.New(rand.NewSource(splitSeed))
	for _, l := range labels {
		idx := byLabel[category.Category(l)]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(float64(len(idx))*testFraction + 0.5)
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		for _, i := range idx[:nTest] {
			test = append(test, examples[i])
		}
		for _, i := range idx[nTest:] {
			train = append(train, examples[i])
		}
	}
	return train, test
}
