package embedding

import "testing"

func TestNormalizeFeedbackText(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        string
	}{
		{"basic", "Dark mode", "Please add it", "Title: Dark mode. Description: Please add it"},
		{"collapses whitespace", "  Dark   mode  ", "  spread   out  ", "Title: Dark mode . Description: spread out"},
		{"empty description", "Title only", "", "Title: Title only. Description:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFeedbackText(tt.title, tt.description)
			if got != tt.want {
				t.Errorf("NormalizeFeedbackText(%q, %q) = %q, want %q", tt.title, tt.description, got, tt.want)
			}
		})
	}
}

func TestNormalizeFeedbackText_Truncates(t *testing.T) {
	longDesc := make([]byte, 3000)
	for i := range longDesc {
		longDesc[i] = 'a'
	}
	got := NormalizeFeedbackText("t", string(longDesc))
	if len(got) > maxTextLen {
		t.Errorf("NormalizeFeedbackText() length = %d, want <= %d", len(got), maxTextLen)
	}
}
