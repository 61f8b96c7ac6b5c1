package harness

import (
	"errors"
	"sort"
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("register and build suite", func(t *testing.T) {
		r := NewRegistry()
		r.Register("contract", func() (*Suite, error) {
			return &Suite{Name: "contract"}, nil
		})

		s, err := r.NewSuite("contract")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Name != "contract" {
			t.Errorf("Name = %q, want %q", s.Name, "contract")
		}
	})

	t.Run("unknown suite returns UnknownSuiteError", func(t *testing.T) {
		r := NewRegistry()
		r.Register("contract", func() (*Suite, error) {
			return &Suite{Name: "contract"}, nil
		})

		_, err := r.NewSuite("nonexistent")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		var use *UnknownSuiteError
		if !errors.As(err, &use) {
			t.Fatalf("expected *UnknownSuiteError, got %T", err)
		}
		if use.Name != "nonexistent" {
			t.Errorf("Name = %q, want %q", use.Name, "nonexistent")
		}
		if len(use.Available) != 1 || use.Available[0] != "contract" {
			t.Errorf("Available = %v, want [contract]", use.Available)
		}
		want := `unknown suite "nonexistent" (available: contract)`
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("available suites returns sorted names", func(t *testing.T) {
		r := NewRegistry()
		r.Register("properties", func() (*Suite, error) { return &Suite{}, nil })
		r.Register("contract", func() (*Suite, error) { return &Suite{}, nil })

		got := r.AvailableSuites()
		if !sort.StringsAreSorted(got) {
			t.Errorf("not sorted: %v", got)
		}
		if len(got) != 2 || got[0] != "contract" || got[1] != "properties" {
			t.Errorf("AvailableSuites() = %v", got)
		}
	})

	t.Run("factory error is wrapped", func(t *testing.T) {
		r := NewRegistry()
		sentinel := errors.New("fixtures missing")
		r.Register("broken", func() (*Suite, error) { return nil, sentinel })

		_, err := r.NewSuite("broken")
		if !errors.Is(err, sentinel) {
			t.Errorf("err = %v, want wrapping %v", err, sentinel)
		}
	})

	t.Run("NewSuites defaults to all in sorted order", func(t *testing.T) {
		r := NewRegistry()
		r.Register("b", func() (*Suite, error) { return &Suite{Name: "b"}, nil })
		r.Register("a", func() (*Suite, error) { return &Suite{Name: "a"}, nil })

		suites, err := r.NewSuites()
		if err != nil {
			t.Fatal(err)
		}
		if len(suites) != 2 || suites[0].Name != "a" || suites[1].Name != "b" {
			t.Errorf("suites = %+v", suites)
		}

		suites, err = r.NewSuites("b")
		if err != nil {
			t.Fatal(err)
		}
		if len(suites) != 1 || suites[0].Name != "b" {
			t.Errorf("suites = %+v", suites)
		}

		if _, err := r.NewSuites("b", "zzz"); err == nil {
			t.Error("NewSuites with an unknown name should fail")
		}
	})

	t.Run("empty name panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewRegistry().Register("", func() (*Suite, error) { return nil, nil })
	})

	t.Run("nil factory panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewRegistry().Register("x", nil)
	})
}

func TestRegexFilters(t *testing.T) {
	id := TestID{Path: []string{"contract", "create-contact"}}

	tests := []struct {
		name    string
		must    []string
		mustNot []string
		want    bool
	}{
		{name: "no filters", want: true},
		{name: "must match hit", must: []string{"create"}, want: true},
		{name: "must match miss", must: []string{"reject"}, want: false},
		{name: "must not match hit", mustNot: []string{"^contract/"}, want: false},
		{name: "either must pattern", must: []string{"nope", "contact$"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			must, err := ParseRegexList(tt.must)
			if err != nil {
				t.Fatal(err)
			}
			mustNot, err := ParseRegexList(tt.mustNot)
			if err != nil {
				t.Fatal(err)
			}
			f := RegexFilters{MustMatch: must, MustNotMatch: mustNot}
			if got := f.AsFilter(id); got != tt.want {
				t.Errorf("AsFilter(%s) = %v, want %v", id, got, tt.want)
			}
		})
	}
}

func TestParseRegexList_Invalid(t *testing.T) {
	if _, err := ParseRegexList([]string{"("}); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestRegexFilters_Describe(t *testing.T) {
	must, _ := ParseRegexList([]string{"a", "b"})
	f := RegexFilters{MustMatch: must}
	if got, want := f.Describe(), `running only checks matching "a" or "b"`; got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
	if got := (RegexFilters{}).Describe(); got != "" {
		t.Errorf("Describe() with no filters = %q, want empty", got)
	}
}

func TestTestID_ChildDoesNotAlias(t *testing.T) {
	parent := TestID{Path: make([]string, 1, 4)}
	parent.Path[0] = "s"
	a := parent.Child("a")
	b := parent.Child("b")
	if a.String() != "s/a" || b.String() != "s/b" {
		t.Errorf("a = %q, b = %q", a, b)
	}
}
