package models

import "testing"

func TestNormalizedMimeTypes(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{name: "nil list", in: nil, want: ""},
		{name: "empty list", in: []string{}, want: ""},
		{name: "single type", in: []string{"image/png"}, want: "image/png"},
		{name: "sorted output", in: []string{"video/mp4", "image/png"}, want: "image/png video/mp4"},
		{name: "case folded", in: []string{"IMAGE/PNG", "Video/MP4"}, want: "image/png video/mp4"},
		{name: "whitespace trimmed", in: []string{"  image/png ", "video/mp4"}, want: "image/png video/mp4"},
		{name: "blank entries dropped", in: []string{"", "  ", "image/gif"}, want: "image/gif"},
		{name: "order independent", in: []string{"b/b", "a/a", "c/c"}, want: "a/a b/b c/c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizedMimeTypes(tt.in); got != tt.want {
				t.Errorf("NormalizedMimeTypes(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizedMimeTypes_EqualFiltersCollapse(t *testing.T) {
	a := NormalizedMimeTypes([]string{"Image/PNG", "video/mp4"})
	b := NormalizedMimeTypes([]string{"VIDEO/MP4 ", "image/png"})
	if a != b {
		t.Errorf("logically equal filters rendered differently: %q vs %q", a, b)
	}
}

func TestSearchRequest_BaseAccess(t *testing.T) {
	var req SearchRequest = &SearchSuggestionRequest{
		SearchText:          "beach",
		MediaSetID:          "set-1",
		SuggestionAuthority: "cloud.example",
		Type:                SuggestionAlbum,
	}

	req.Base().ID = 42
	if req.(*SearchSuggestionRequest).SearchRequestBase.ID != 42 {
		t.Error("Base() must expose the embedded fields by reference")
	}
}
