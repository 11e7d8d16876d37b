package session

import "testing"

func TestAuthenticated(t *testing.T) {
	if New("a", "", &Profile{ID: "1"}).Authenticated() {
		t.Fatalf("Authenticated() = true without token; want false")
	}
	if New("b", "tok", nil).Authenticated() {
		t.Fatalf("Authenticated() = true without profile; want false")
	}
	s := New("c", "  tok  ", &Profile{ID: "1", Name: "Ana"})
	if !s.Authenticated() {
		t.Fatalf("Authenticated() = false; want true")
	}
	if got := s.Token(); got != "tok" {
		t.Fatalf("Token() = %q; want %q", got, "tok")
	}
}

func TestProfileIsCopied(t *testing.T) {
	s := New("c", "tok", &Profile{Name: "Ana"})
	p := s.Profile()
	p.Name = "changed"
	if s.Profile().Name != "Ana" {
		t.Fatalf("Profile() leaked internal pointer")
	}
}

func TestBearerToken(t *testing.T) {
	for in, want := range map[string]string{
		"Bearer abc":   "abc",
		"bearer  xyz ": "xyz",
		"Basic abc":    "",
		"":             "",
		"Bearer ":      "",
	} {
		if got := BearerToken(in); got != want {
			t.Fatalf("BearerToken(%q) = %q; want %q", in, got, want)
		}
	}
}
