package app

import (
	"reflect"
	"testing"
)

func TestCandidateSlugs(t *testing.T) {
	cases := []struct {
		slug string
		want []string
	}{
		{"ideas", []string{"ideas"}},
		{"the-current", []string{"the-current", "thecurrent", "current"}},
		{"thecurrent", []string{"thecurrent", "current"}},
		{"as-it-happens", []string{"as-it-happens", "asithappens"}},
		{"podcasts/ideas", []string{"podcasts/ideas"}},
		{"the", []string{"the"}},
	}
	for _, c := range cases {
		got := CandidateSlugs(c.slug)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("CandidateSlugs(%q) = %v, want %v", c.slug, got, c.want)
		}
	}
}
