package handlers

import "testing"

func TestParsePaginationDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != 20 {
		t.Fatalf("expected defaults 1/20, got %d/%d", page, limit)
	}
}

func TestParsePaginationRejectsBadValues(t *testing.T) {
	cases := [][2]string{
		{"0", ""}, {"-1", ""}, {"abc", ""},
		{"", "0"}, {"", "-5"}, {"", "x"},
	}
	for _, tc := range cases {
		_, _, err := parsePaginationParams(tc[0], tc[1])
		if err == nil {
			t.Fatalf("expected page=%q limit=%q to be rejected", tc[0], tc[1])
		}
		if err.Error() == "" {
			t.Fatalf("error for page=%q limit=%q carries no message", tc[0], tc[1])
		}
	}
}

func TestParsePaginationCapsLimit(t *testing.T) {
	_, limit, err := parsePaginationParams("2", "500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != maxPageSize {
		t.Fatalf("expected limit capped at %d, got %d", maxPageSize, limit)
	}
}
