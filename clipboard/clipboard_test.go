package clipboard

import "testing"

func TestCaption(t *testing.T) {
	tests := []struct {
		original, translated, want string
	}{
		{"hello", "你好", "hello\n你好"},
		{"  hello ", "", "hello"},
		{"", "你好", "你好"},
		{" ", "\t", ""},
	}
	for _, tt := range tests {
		if got := Caption(tt.original, tt.translated); got != tt.want {
			t.Errorf("Caption(%q, %q) = %q, want %q", tt.original, tt.translated, got, tt.want)
		}
	}
}
