package benchmarks

import (
	"fmt"
	"testing"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/report"
)

// BenchmarkReport_AddSection measures insertion with event recording.
func BenchmarkReport_AddSection(b *testing.B) {
	r := newReport(b, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if r.SectionCount() >= 100 {
			b.StopTimer()
			r = newReport(b, 0)
			b.StartTimer()
		}
		if _, err := r.AddSection(report.SectionInput{Title: "Section", Content: "some words here"}); err != nil {
			b.Fatal(err)
		}
		r.PullDomainEvents()
	}
}

// BenchmarkReport_Encode_20 serializes a report with twenty sections.
func BenchmarkReport_Encode_20(b *testing.B) {
	r := newReport(b, 20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = report.Encode(r)
	}
}

// BenchmarkReport_Decode_20 restores a report with twenty sections.
func BenchmarkReport_Decode_20(b *testing.B) {
	data, err := report.Encode(newReport(b, 20))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = report.Decode(data)
	}
}

// BenchmarkReport_WordCount sums word counts across sections.
func BenchmarkReport_WordCount(b *testing.B) {
	r := newReport(b, 50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.WordCount()
	}
}

func newReport(b *testing.B, sections int) *report.Report {
	b.Helper()
	r, err := report.New(report.Params{ProjectID: "proj-1", Type: "CUSTOM_REPORT", Title: "Benchmark"})
	if err != nil {
		b.Fatal(err)
	}
	for i := range sections {
		in := report.SectionInput{
			Title:   fmt.Sprintf("Section %d", i),
			Content: "lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod",
		}
		if _, err := r.AddSection(in); err != nil {
			b.Fatal(err)
		}
	}
	r.PullDomainEvents()
	return r
}
