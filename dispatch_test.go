package wander

import "testing"

func TestLikeBody(t *testing.T) {
	got := likeBody("Half Dome, Yosemite", 3)
	want := "Your post of Half Dome, Yosemite now has 3 likes."
	if got != want {
		t.Errorf("likeBody() = %q, want %q", got, want)
	}
}

func TestFollowBody(t *testing.T) {
	got := followBody("alice_wanders")
	want := "alice_wanders is now following you."
	if got != want {
		t.Errorf("followBody() = %q, want %q", got, want)
	}
}

func TestMessageBody(t *testing.T) {
	tests := []struct {
		name     string
		sender   string
		text     string
		expected string
	}{
		{
			name:     "plain text",
			sender:   "bob.overland",
			text:     "that summit photo is unreal",
			expected: "bob.overland: that summit photo is unreal",
		},
		{
			name:     "markup stripped",
			sender:   "bob.overland",
			text:     `hi <img src=x onerror="alert(1)">there`,
			expected: "bob.overland: hi there",
		},
		{
			name:     "script stripped",
			sender:   "bob.overland",
			text:     "<script>alert(1)</script>ok",
			expected: "bob.overland: ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := messageBody(tt.sender, tt.text); got != tt.expected {
				t.Errorf("messageBody(%q, %q) = %q, want %q", tt.sender, tt.text, got, tt.expected)
			}
		})
	}
}
