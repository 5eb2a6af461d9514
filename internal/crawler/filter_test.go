package crawler

import "testing"

var (
	testExtensions = []string{"pdf", "xlsx", "xls", "doc", "docx", "ppt", "pptx"}
	testSubstrings = []string{"user?destination=", "?report=", "logout", "loggaut"}
)

// TestInScope tests the link filter predicate.
func TestInScope(t *testing.T) {
	t.Parallel()

	const root = "https://x.com"

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "same domain page", key: "https://x.com/about", want: true},
		{name: "root itself", key: "https://x.com", want: true},
		{name: "pdf is excluded", key: "https://x.com/files/report.pdf", want: false},
		{name: "docx is excluded", key: "https://x.com/files/letter.docx", want: false},
		{name: "extension match is case-sensitive", key: "https://x.com/files/report.PDF", want: true},
		{name: "extension checked on path not query", key: "https://x.com/download.pdf?v=2", want: false},
		{name: "extension in query only is allowed", key: "https://x.com/view?file=a.pdf", want: true},
		{name: "logout is excluded", key: "https://x.com/user/logout", want: false},
		{name: "localized logout is excluded", key: "https://x.com/loggaut", want: false},
		{name: "login redirect is excluded", key: "https://x.com/user?destination=/node/1", want: false},
		{name: "report query is excluded", key: "https://x.com/stats?report=weekly", want: false},
		{name: "other domain is excluded", key: "https://other.com/about", want: false},
		{name: "scheme mismatch is excluded", key: "http://x.com/about", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := InScope(tt.key, root, testExtensions, testSubstrings)
			if got != tt.want {
				t.Errorf("InScope(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

// TestFilterInScope tests the Filter wrapper.
func TestFilterInScope(t *testing.T) {
	t.Parallel()

	t.Run("empty block lists only check the prefix", func(t *testing.T) {
		t.Parallel()

		f := Filter{Root: "https://x.com"}
		if !f.InScope("https://x.com/a.pdf") {
			t.Error("expected pdf to pass without blocked extensions")
		}
		if f.InScope("https://y.com/") {
			t.Error("expected other domain to fail")
		}
	})

	t.Run("custom substrings", func(t *testing.T) {
		t.Parallel()

		f := Filter{Root: "https://x.com", BlockedSubstrings: []string{"/private/"}}
		if f.InScope("https://x.com/private/doc") {
			t.Error("expected custom substring to be blocked")
		}
		if !f.InScope("https://x.com/logout") {
			t.Error("default substrings must not apply to a custom filter")
		}
	})
}
