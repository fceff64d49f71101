package textutil_test

import (
	"testing"

	"aircheck/internal/textutil"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Morning Drive", "morning-drive"},
		{"The 5 O'Clock Show", "the-5-o-clock-show"},
		{"  Jazz   After  Dark  ", "jazz-after-dark"},
		{"already-slugged", "already-slugged"},
		{"!!!", "untitled"},
		{"", "untitled"},
		{"Noticias (en Español)", "noticias-en-espa-ol"},
	}
	for _, tc := range cases {
		if got := textutil.Slug(tc.in); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeCallLetters(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"wxyz", "WXYZ"},
		{" kexp ", "KEXP"},
		{"WFMU-HD2", "WFMUHD2"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.NormalizeCallLetters(tc.in); got != tc.want {
			t.Errorf("NormalizeCallLetters(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a/b", "a-b"},
		{"what? when?", "what when"},
		{"  spaced  ", "spaced"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitleFromSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"morning-drive", "Morning Drive"},
		{"jazz_after_dark", "Jazz After Dark"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.TitleFromSlug(tc.in); got != tc.want {
			t.Errorf("TitleFromSlug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
