package media

import "testing"

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		hosts   []string
		wantErr bool
		wantID  string
	}{
		{"watch_url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil, false, "dQw4w9WgXcQ"},
		{"short_url", "https://youtu.be/dQw4w9WgXcQ", nil, false, "dQw4w9WgXcQ"},
		{"mobile_url", "https://m.youtube.com/watch?v=abc", nil, false, "abc"},
		{"custom_host_id_param", "https://video.example/watch?id=abc123", []string{"video.example"}, false, "abc123"},
		{"empty", "", nil, true, ""},
		{"whitespace_only", "   ", nil, true, ""},
		{"not_a_uri", "://nope", nil, true, ""},
		{"wrong_scheme", "ftp://youtube.com/watch?v=x", nil, true, ""},
		{"no_host", "https:///watch?v=x", nil, true, ""},
		{"unsupported_host", "https://vimeo.com/12345", nil, true, ""},
		{"host_not_in_custom_list", "https://www.youtube.com/watch?v=x", []string{"video.example"}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocator(tt.raw, tt.hosts...)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLocator(%q) = %v, want error", tt.raw, loc)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocator(%q): %v", tt.raw, err)
			}
			if loc.VideoID() != tt.wantID {
				t.Errorf("VideoID = %q, want %q", loc.VideoID(), tt.wantID)
			}
			if loc.String() != tt.raw {
				t.Errorf("String = %q, want %q", loc.String(), tt.raw)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize("abc/../x?y"); got != "abc____x_y" {
		t.Errorf("sanitize = %q", got)
	}
	if got := sanitize("dQw4w9WgXcQ"); got != "dQw4w9WgXcQ" {
		t.Errorf("sanitize changed a clean id: %q", got)
	}
}
