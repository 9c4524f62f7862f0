package normalize

import (
	"errors"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode    string
		input   string
		want    string
		wantErr error
	}{
		{mode: "", input: " x ", want: " x "},
		{mode: "none", input: "Straße", want: "Straße"},
		{mode: "UPPER", input: "abc", want: "ABC"},
		{mode: "fold", input: "ABC", want: "abc"},
		{mode: "url", input: "HTTP://Example.org:80/", want: "http://example.org"},
		{mode: "lower", wantErr: ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			t.Parallel()

			fn, err := New(tt.mode)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := fn(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestUpper(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "ascii", input: "flag", want: "FLAG"},
		{name: "umlaut", input: "Mikroökonomie", want: "MIKROÖKONOMIE"},
		{name: "decomposed accent is composed", input: "cafe\u0301", want: "CAF\u00c9"},
		{name: "surrounding space is trimmed", input: "  title\t", want: "TITLE"},
		{name: "sharp s", input: "straße", want: "STRASSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Upper(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFold(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"Straße", "STRASSE"},
		{"Mikroökonomie", "MIKROÖKONOMIE"},
		{"Go", "gO"},
	}

	for _, p := range pairs {
		if Fold(p[0]) != Fold(p[1]) {
			t.Errorf("expected %q and %q to fold equal, got %q and %q", p[0], p[1], Fold(p[0]), Fold(p[1]))
		}
	}
	if Fold("abc") == Fold("abd") {
		t.Error("distinct keys must stay distinct")
	}
}

func TestURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "scheme and host are lower-cased", input: "HTTPS://WWW.Example.ORG/Path", want: "https://www.example.org/Path"},
		{name: "fragment is dropped", input: "https://example.org/a#section", want: "https://example.org/a"},
		{name: "default port is dropped", input: "https://example.org:443/a", want: "https://example.org/a"},
		{name: "other port is kept", input: "https://example.org:8443/a", want: "https://example.org:8443/a"},
		{name: "lone slash is dropped", input: "http://example.org/", want: "http://example.org"},
		{name: "query is kept", input: "http://example.org/?q=1", want: "http://example.org?q=1"},
		{name: "unicode host becomes punycode", input: "https://Bücher.example/", want: "https://xn--bcher-kva.example"},
		{name: "ipv6 host keeps brackets", input: "http://[::1]:80/x", want: "http://[::1]/x"},
		{name: "relative reference is only trimmed", input: " /wiki/Go ", want: "/wiki/Go"},
		{name: "plain title passes through", input: "Go (programming language)", want: "Go (programming language)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := URL(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFuncs_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if got := Upper("straße"); got != "STRASSE" {
					t.Errorf("expected STRASSE, got %q", got)
					return
				}
				if got := Fold("ÖL"); got != "öl" {
					t.Errorf("expected öl, got %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
