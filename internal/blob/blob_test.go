package blob

import "testing"

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/", ""},
		{"backups", "backups/"},
		{"backups/", "backups/"},
		{"/backups/daily/", "backups/daily/"},
	}

	for _, tt := range tests {
		if got := NormalizePrefix(tt.input); got != tt.want {
			t.Errorf("NormalizePrefix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestJoinKey(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "pages.jsonl", "pages.jsonl"},
		{"backups/", "pages.jsonl.zst", "backups/pages.jsonl.zst"},
		{"backups/", "/pages.jsonl", "backups/pages.jsonl"},
	}

	for _, tt := range tests {
		if got := JoinKey(tt.prefix, tt.key); got != tt.want {
			t.Errorf("JoinKey(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}
