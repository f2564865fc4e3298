package scoring

import (
	"testing"

	"github.com/startupnamer/vitals/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestScoreEmptyMetrics(t *testing.T) {
	if got := Score(domain.Metrics{}); got != 100 {
		t.Fatalf("expected 100 for unmeasured metrics, got %d", got)
	}
}

func TestScoreAllGood(t *testing.T) {
	m := domain.Metrics{LCP: f(2000), INP: f(150), CLS: f(0.05)}
	if got := Score(m); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestScoreAllPoor(t *testing.T) {
	m := domain.Metrics{LCP: f(5000), INP: f(700), CLS: f(0.3)}
	if got := Score(m); got != 0 {
		t.Fatalf("expected 0 (100-50-30-20 clamped), got %d", got)
	}
}

func TestScoreMixed(t *testing.T) {
	m := domain.Metrics{LCP: f(3000), INP: f(400)}
	if got := Score(m); got != 65 {
		t.Fatalf("expected 65 (100-20-15), got %d", got)
	}
}

func TestScoreBoundaries(t *testing.T) {
	cases := []struct {
		lcp  float64
		want int
	}{
		{2500, 100},
		{2501, 80},
		{4000, 80},
		{4001, 50},
	}
	for _, c := range cases {
		if got := Score(domain.Metrics{LCP: f(c.lcp)}); got != c.want {
			t.Fatalf("lcp=%.0f: expected %d, got %d", c.lcp, c.want, got)
		}
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	values := []*float64{nil, f(0), f(100), f(2500), f(5000), f(30000)}
	for _, lcp := range values {
		for _, inp := range values {
			for _, cls := range values {
				got := Score(domain.Metrics{LCP: lcp, INP: inp, CLS: cls})
				if got < 0 || got > 100 {
					t.Fatalf("score %d out of range", got)
				}
			}
		}
	}
}

func TestRateNilValue(t *testing.T) {
	if got := Rate(domain.MetricLCP, nil); got != "" {
		t.Fatalf("expected empty rating for nil value, got %q", got)
	}
}

func TestRateMonotonic(t *testing.T) {
	order := map[domain.Rating]int{
		domain.RatingGood:             0,
		domain.RatingNeedsImprovement: 1,
		domain.RatingPoor:             2,
	}
	for _, metric := range domain.MetricNames {
		th := Thresholds[metric]
		values := []float64{0, th.Good, th.Good * 1.01, th.NeedsImprovement, th.NeedsImprovement * 1.01}
		prev := -1
		for _, v := range values {
			rank := order[Rate(metric, &v)]
			if rank < prev {
				t.Fatalf("%s: rating improved as value increased at %v", metric, v)
			}
			prev = rank
		}
	}
}

func TestRateThresholdTable(t *testing.T) {
	cases := []struct {
		metric string
		value  float64
		want   domain.Rating
	}{
		{domain.MetricLCP, 2500, domain.RatingGood},
		{domain.MetricLCP, 4000, domain.RatingNeedsImprovement},
		{domain.MetricLCP, 4001, domain.RatingPoor},
		{domain.MetricINP, 200, domain.RatingGood},
		{domain.MetricINP, 500, domain.RatingNeedsImprovement},
		{domain.MetricINP, 501, domain.RatingPoor},
		{domain.MetricCLS, 0.1, domain.RatingGood},
		{domain.MetricCLS, 0.25, domain.RatingNeedsImprovement},
		{domain.MetricCLS, 0.26, domain.RatingPoor},
		{domain.MetricFCP, 1800, domain.RatingGood},
		{domain.MetricFCP, 3000, domain.RatingNeedsImprovement},
		{domain.MetricFCP, 3001, domain.RatingPoor},
		{domain.MetricTTFB, 800, domain.RatingGood},
		{domain.MetricTTFB, 1800, domain.RatingNeedsImprovement},
		{domain.MetricTTFB, 1801, domain.RatingPoor},
	}
	for _, c := range cases {
		if got := Rate(c.metric, &c.value); got != c.want {
			t.Fatalf("%s=%v: expected %s, got %s", c.metric, c.value, c.want, got)
		}
	}
}

func TestRecommendGoodPerformance(t *testing.T) {
	recs := Recommend(domain.Metrics{LCP: f(2000), CLS: f(0.05)})
	if len(recs) != 1 {
		t.Fatalf("expected exactly one recommendation, got %d", len(recs))
	}
	if recs[0].Metric != "Overall" || recs[0].Priority != "low" {
		t.Fatalf("unexpected recommendation: %+v", recs[0])
	}
}

func TestRecommendPoorMetrics(t *testing.T) {
	recs := Recommend(domain.Metrics{LCP: f(5000), INP: f(700), CLS: f(0.3)})
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	for _, r := range recs {
		if r.Priority != "high" {
			t.Fatalf("expected high priority for %s, got %s", r.Metric, r.Priority)
		}
	}
}

func TestRecommendMediumPriority(t *testing.T) {
	recs := Recommend(domain.Metrics{TTFB: f(1000)})
	if len(recs) != 1 || recs[0].Metric != "TTFB" || recs[0].Priority != "medium" {
		t.Fatalf("unexpected recommendations: %+v", recs)
	}
}

func TestRecommendNeverEmpty(t *testing.T) {
	if len(Recommend(domain.Metrics{})) == 0 {
		t.Fatalf("expected non-empty recommendations for empty metrics")
	}
}
