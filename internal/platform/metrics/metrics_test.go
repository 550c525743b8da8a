package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestCounterVec(t *testing.T) {
	r := NewRegistry()
	c := NewCounterVec(Opts{Name: "requests_total", Help: "Requests."}, []string{"route", "status"})
	r.MustRegister(c)

	c.WithLabelValues("/todo/fetch", "200").Inc()
	c.WithLabelValues("/todo/fetch", "200").Add(2)
	c.WithLabelValues("/todo/fetch").Inc() // wrong arity is ignored

	out := scrape(t, r)
	if !strings.Contains(out, `requests_total{route="/todo/fetch",status="200"} 3`) {
		t.Fatalf("unexpected exposition:\n%s", out)
	}
}

func TestHistogramVec(t *testing.T) {
	r := NewRegistry()
	h := NewHistogramVec(Opts{Name: "latency_seconds", Help: "Latency."}, []string{"route"}, []float64{0.1, 1})
	r.MustRegister(h)

	h.Observe(0.05, "/a")
	h.Observe(0.5, "/a")
	h.Observe(3, "/a")

	out := scrape(t, r)
	for _, want := range []string{
		`# TYPE latency_seconds histogram`,
		`latency_seconds_bucket{route="/a",le="0.1"} 1`,
		`latency_seconds_bucket{route="/a",le="1"} 2`,
		`latency_seconds_bucket{route="/a",le="+Inf"} 3`,
		`latency_seconds_sum{route="/a"} 3.55`,
		`latency_seconds_count{route="/a"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMustRegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewGaugeFunc(Opts{Name: "dup"}, nil))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.MustRegister(NewGaugeFunc(Opts{Name: "dup"}, nil))
}
