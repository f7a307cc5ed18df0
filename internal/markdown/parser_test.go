package markdown

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name    string
		in      string
		want    []string
		notWant []string
	}{
		{"empty", "", nil, []string{"<p>"}},
		{"emphasis", "Run **5k** every week", []string{"<strong>5k</strong>"}, nil},
		{"task list", "- [x] buy shoes\n- [ ] sign up", []string{`type="checkbox"`, "buy shoes"}, nil},
		{"hard wrap", "line one\nline two", []string{"<br />"}, nil},
		{"raw html dropped", "<script>alert(1)</script>", nil, []string{"<script>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Render(tt.in)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render(%q) = %q, missing %q", tt.in, got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("Render(%q) = %q, should not contain %q", tt.in, got, w)
				}
			}
		})
	}
}
