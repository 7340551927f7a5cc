package textsim

import "testing"

func TestJaccard_Identical(t *testing.T) {
	text := "Go channels provide communication between goroutines"
	if got := Jaccard(text, text); got != 1.0 {
		t.Errorf("Jaccard(x, x) = %v, want 1.0", got)
	}
}

func TestJaccard_Disjoint(t *testing.T) {
	if got := Jaccard("apple banana cherry", "xylophone quartz violin"); got != 0 {
		t.Errorf("Disjoint texts scored %v, want 0", got)
	}
}

func TestJaccard_Empty(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"both empty", "", ""},
		{"left empty", "", "some real text here"},
		{"right empty", "some real text here", ""},
		{"only short tokens", "a of is to", "an it be"},
	}

	for _, tt := range tests {
		if got := Jaccard(tt.a, tt.b); got != 0 {
			t.Errorf("%s: got %v, want 0", tt.name, got)
		}
	}
}

func TestJaccard_Symmetric(t *testing.T) {
	a := "database indexing improves query performance significantly"
	b := "query performance depends on proper database indexing"

	if Jaccard(a, b) != Jaccard(b, a) {
		t.Errorf("Jaccard is not symmetric: %v vs %v", Jaccard(a, b), Jaccard(b, a))
	}
}

func TestJaccard_PartialOverlap(t *testing.T) {
	// Tokens: {one, two, three} vs {two, three, four}. Intersection 2,
	// union 4.
	got := Jaccard("one two three", "two three four")
	if got != 0.5 {
		t.Errorf("Partial overlap scored %v, want 0.5", got)
	}
}

func TestJaccard_CaseAndPunctuation(t *testing.T) {
	got := Jaccard("Hello, World! Testing.", "hello world testing")
	if got != 1.0 {
		t.Errorf("Case/punctuation variants scored %v, want 1.0", got)
	}
}

func TestJaccard_ShortTokensDropped(t *testing.T) {
	// "is" and "a" fall under the length cutoff on both sides, so only
	// {cat} vs {cat} remains.
	got := Jaccard("is a cat", "a cat is")
	if got != 1.0 {
		t.Errorf("Expected short tokens dropped, got %v, want 1.0", got)
	}
}

func TestJaccard_DuplicatesCollapse(t *testing.T) {
	if got := Jaccard("cache cache cache", "cache"); got != 1.0 {
		t.Errorf("Duplicate tokens scored %v, want 1.0", got)
	}
}

func TestJaccard_Range(t *testing.T) {
	pairs := [][2]string{
		{"the quick brown fox", "jumps over the lazy dog"},
		{"структура данных", "data structure"},
		{"mixed 123 numbers_and_underscores", "numbers_and_underscores only"},
	}

	for _, p := range pairs {
		got := Jaccard(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Jaccard(%q, %q) = %v, out of [0,1]", p[0], p[1], got)
		}
	}
}
