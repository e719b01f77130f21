// Package report renders signal bundles and window summaries for the
// terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lankasignal/lankasignal/internal/analytics"
	"github.com/lankasignal/lankasignal/internal/category"
	"github.com/lankasignal/lankasignal/internal/signal"
)

// Signals renders b with at most limit entries per section. limit <= 0
// shows everything.
func Signals(b *signal.Bundle, limit int) string {
	var lines []string
	lines = append(lines, titleStyle.Render("Signals"))
	lines = append(lines, metaStyle.Render(fmt.Sprintf(
		"Generated %s · %d risks · %d opportunities · %d trending · %d anomalies",
		b.GeneratedAt.Format("Jan 2 15:04"), len(b.Risks), len(b.Opportunities), len(b.Trending), len(b.Anomalies),
	)))

	lines = append(lines, sectionStyle.Render("Risks"))
	if len(b.Risks) == 0 {
		lines = append(lines, metaStyle.Render("  none"))
	}
	for i, r := range b.Risks {
		if limit > 0 && i >= limit {
			break
		}
		tag := severityStyle(string(r.Severity)).Render(fmt.Sprintf("[%s]", strings.ToUpper(string(r.Severity))))
		lines = append(lines, fmt.Sprintf("  %s %s %s", tag, r.Description, sourceStyle.Render(r.Source)))
	}

	lines = append(lines, sectionStyle.Render("Opportunities"))
	if len(b.Opportunities) == 0 {
		lines = append(lines, metaStyle.Render("  none"))
	}
	for i, o := range b.Opportunities {
		if limit > 0 && i >= limit {
			break
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s", sentiment(o.Sentiment), o.Description, sourceStyle.Render(o.Source)))
	}

	lines = append(lines, sectionStyle.Render("Trending"))
	if len(b.Trending) == 0 {
		lines = append(lines, metaStyle.Render("  none"))
	}
	for i, t := range b.Trending {
		if limit > 0 && i >= limit {
			break
		}
		lines = append(lines, fmt.Sprintf("  %s %s", t.Topic, metaStyle.Render(fmt.Sprintf("%d mentions (%s)", t.Count, t.Timeframe))))
	}

	lines = append(lines, sectionStyle.Render("Anomalies"))
	if len(b.Anomalies) == 0 {
		lines = append(lines, metaStyle.Render("  none"))
	}
	for i, a := range b.Anomalies {
		if limit > 0 && i >= limit {
			break
		}
		tag := severityStyle(string(a.Severity)).Render(fmt.Sprintf("[%s]", a.Type))
		lines = append(lines, fmt.Sprintf("  %s %s", tag, a.Description))
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

// Summary renders the distributions, sentiment and trending topics of a
// window.
func Summary(s *analytics.Summary) string {
	var lines []string
	lines = append(lines, titleStyle.Render("Window "+s.Window))
	lines = append(lines, metaStyle.Render(fmt.Sprintf("%d articles", s.Total)))

	lines = append(lines, sectionStyle.Render("Categories"))
	for _, c := range rankCategories(s.Categories) {
		line := fmt.Sprintf("  %-22s %4d", c, s.Categories[c])
		if v, ok := s.Sentiment[c]; ok {
			line += "  " + sentiment(v)
		}
		lines = append(lines, line)
	}

	lines = append(lines, sectionStyle.Render("Sources"))
	for _, sc := range analytics.RankSources(s.Sources, 0) {
		lines = append(lines, fmt.Sprintf("  %-22s %4d", sourceStyle.Render(sc.Source), sc.Count))
	}

	if len(s.Trending) > 0 {
		lines = append(lines, sectionStyle.Render("Trending"))
		var topics []string
		for _, t := range s.Trending {
			topics = append(topics, fmt.Sprintf("%s (%d)", t.Keyword, t.Count))
		}
		lines = append(lines, "  "+strings.Join(topics, ", "))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// ActiveSources renders ranked sources as "Name (n), Name (n)".
func ActiveSources(list []analytics.SourceCount) string {
	if len(list) == 0 {
		return metaStyle.Render("no articles")
	}
	parts := make([]string, len(list))
	for i, sc := range list {
		parts[i] = fmt.Sprintf("%s (%d)", sourceStyle.Render(sc.Source), sc.Count)
	}
	return strings.Join(parts, ", ")
}

func sentiment(v float64) string {
	s := fmt.Sprintf("%+.2f", v)
	if v < 0 {
		return negativeStyle.Render(s)
	}
	return positiveStyle.Render(s)
}

func rankCategories(dist map[category.Category]int) []category.Category {
	out := make([]category.Category, 0, len(dist))
	for c := range dist {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if dist[out[i]] != dist[out[j]] {
			return dist[out[i]] > dist[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
