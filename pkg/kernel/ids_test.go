package kernel_test

import (
	"testing"

	"github.com/chriswk/auth-app/pkg/kernel"
)

func TestNewEmail_Canonicalizes(t *testing.T) {
	if got := kernel.NewEmail("  User@Example.COM "); got != "user@example.com" {
		t.Fatalf("expected canonical form, got %q", got)
	}
}

func TestEmail_Domain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"user@example.com", "example.com"},
		{"weird@name@example.com", "example.com"},
		{"no-at-sign", ""},
		{"trailing@", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := kernel.NewEmail(tc.in).Domain(); got != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
