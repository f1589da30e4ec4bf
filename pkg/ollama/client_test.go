package ollama

import (
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient("http://localhost:11434/api/chat", "llava")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.Name() != "ollama:llava" {
		t.Errorf("Unexpected name %s", c.Name())
	}
	if _, err := NewClient("http://localhost:11434", ""); err == nil {
		t.Error("Expected error without a model")
	}
	if _, err := NewClient("localhost", "llava"); err == nil {
		t.Error("Expected error for URL without scheme")
	}
}

func TestSanitizeModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"ratings":[1,2]}`, `{"ratings":[1,2]}`},
		{"fenced", "```json\n{\"ratings\":[1,2]}\n```", `{"ratings":[1,2]}`},
		{"trailing comma", `{"ratings":[1,2,]}`, `{"ratings":[1,2]}`},
		{"chatter", `Sure! {"ratings":[3]} hope this helps`, `{"ratings":[3]}`},
		{"comments", "{\n// scores\n\"ratings\":[4] /* done */}", "{\n\n\"ratings\":[4] }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeModelJSON(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseRatings(t *testing.T) {
	got, err := parseRatings("```json\n{\"ratings\": [0, 55.5, 140, -3]}\n```", 4)
	if err != nil {
		t.Fatalf("parseRatings failed: %v", err)
	}
	want := []float64{0, 55.5, 100, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rating %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	if _, err := parseRatings(`{"ratings":[1,2]}`, 3); err == nil {
		t.Error("Expected error for wrong rating count")
	}
	if _, err := parseRatings("I cannot see the image", 3); err == nil {
		t.Error("Expected error for non-JSON answer")
	}
}

func TestBuildRatingPrompt(t *testing.T) {
	p := BuildRatingPrompt([]string{"a photo with palm trees", "a photo with snow on the ground"})
	if !strings.Contains(p, "1. a photo with palm trees\n") || !strings.Contains(p, "2. a photo with snow on the ground\n") {
		t.Errorf("Expected numbered statements, got:\n%s", p)
	}
	if !strings.Contains(p, "exactly 2 numbers") {
		t.Errorf("Expected the rating count in the prompt, got:\n%s", p)
	}
}
