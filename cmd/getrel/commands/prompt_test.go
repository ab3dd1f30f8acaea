package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/3leaps/getrel/internal/model"
)

func TestPromptAsset(t *testing.T) {
	candidates := []model.Asset{
		{Name: "tool-linux-amd64.tar.gz"},
		{Name: "tool-linux-amd64.zip"},
	}

	cases := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"picks first", "1\n", "tool-linux-amd64.tar.gz", true},
		{"picks second", "2\n", "tool-linux-amd64.zip", true},
		{"whitespace tolerated", "  2 \n", "tool-linux-amd64.zip", true},
		{"empty aborts", "\n", "", false},
		{"out of range aborts", "7\n", "", false},
		{"garbage aborts", "yes\n", "", false},
		{"eof aborts", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			choose := promptAsset(strings.NewReader(tc.input), &out)
			got, ok := choose("tool", candidates)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got.Name != tc.want {
				t.Errorf("chose %q, want %q", got.Name, tc.want)
			}
			if !strings.Contains(out.String(), "tool-linux-amd64.zip") {
				t.Error("candidates not listed in prompt")
			}
		})
	}
}
