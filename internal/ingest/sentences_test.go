package ingest

import (
	"reflect"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "two sentences",
			in:   "We release a dataset. It covers ten languages.",
			want: []string{"We release a dataset.", "It covers ten languages."},
		},
		{
			name: "abbreviation does not split",
			in:   "Models like BERT (e.g. base and large) work well. We agree.",
			want: []string{"Models like BERT (e.g. base and large) work well.", "We agree."},
		},
		{
			name: "et al does not split",
			in:   "Smith et al. proposed this. We extend it.",
			want: []string{"Smith et al. proposed this.", "We extend it."},
		},
		{
			name: "decimal number does not split",
			in:   "Accuracy improves by 3.5 points. This is significant.",
			want: []string{"Accuracy improves by 3.5 points.", "This is significant."},
		},
		{
			name: "question and exclamation",
			in:   "Does it scale? Yes! It scales linearly.",
			want: []string{"Does it scale?", "Yes!", "It scales linearly."},
		},
		{
			name: "lowercase continuation does not split",
			in:   "We use torch.nn modules. See below.",
			want: []string{"We use torch.nn modules.", "See below."},
		},
		{
			name: "single sentence without terminator",
			in:   "A title-like fragment",
			want: []string{"A title-like fragment"},
		},
		{
			name: "empty",
			in:   "   ",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitSentences(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
