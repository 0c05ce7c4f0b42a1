package errx

import (
	"errors"
	"fmt"
	"testing"
)

func TestE(t *testing.T) {
	t.Run("returns nil when error is nil", func(t *testing.T) {
		if got := E("op", NotFound, nil); got != nil {
			t.Errorf("E() with nil error = %v, want nil", got)
		}
	})

	t.Run("constructs Error with all fields", func(t *testing.T) {
		root := errors.New("root cause")
		err := E("links.store.FindByCode", NotFound, root)

		var e *Error
		if !errors.As(err, &e) {
			t.Fatal("expected error to be of type *errx.Error")
		}
		if e.Op != "links.store.FindByCode" {
			t.Errorf("Op = %q, want %q", e.Op, "links.store.FindByCode")
		}
		if e.Kind != NotFound {
			t.Errorf("Kind = %v, want %v", e.Kind, NotFound)
		}
		if !errors.Is(err, root) {
			t.Error("errors.Is() failed to reach root cause")
		}
	})
}

func TestWrap(t *testing.T) {
	root := errors.New("duplicate code")
	inner := E("links.store.Insert", Conflict, root)
	outer := Wrap("links.registry.Create", inner)

	if got := KindOf(outer); got != Conflict {
		t.Errorf("KindOf() = %v, want %v", got, Conflict)
	}
	if got := OpOf(outer); got != "links.registry.Create" {
		t.Errorf("OpOf() = %q, want %q", got, "links.registry.Create")
	}
	if !errors.Is(outer, root) {
		t.Error("errors.Is() failed through Wrap")
	}
	if Wrap("op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	plain := Wrap("op", errors.New("plain"))
	if KindOf(plain) != Unknown {
		t.Errorf("KindOf(Wrap(plain)) = %v, want Unknown", KindOf(plain))
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"nil inner error returns op", &Error{Op: "links.registry.Resolve", Kind: NotFound}, "links.registry.Resolve"},
		{"empty op returns inner message", &Error{Kind: Unknown, Err: errors.New("root cause")}, "root cause"},
		{"op and error", &Error{Op: "links.registry.Resolve", Kind: NotFound, Err: errors.New("root cause")}, "links.registry.Resolve: root cause"},
		{"both empty", &Error{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOfAndOpOf(t *testing.T) {
	if got := KindOf(nil); got != Unknown {
		t.Errorf("KindOf(nil) = %v, want Unknown", got)
	}
	if got := KindOf(errors.New("plain")); got != Unknown {
		t.Errorf("KindOf(plain) = %v, want Unknown", got)
	}
	if got := OpOf(nil); got != "" {
		t.Errorf("OpOf(nil) = %q, want empty", got)
	}

	root := errors.New("root")
	store := E("links.store.Insert", Unavailable, root)
	registry := Wrap("links.registry.Create", store)
	wrapped := fmt.Errorf("handler: %w", registry)

	if got := KindOf(wrapped); got != Unavailable {
		t.Errorf("KindOf() = %v, want %v", got, Unavailable)
	}
	// errors.As finds the outermost match.
	if got := OpOf(wrapped); got != "links.registry.Create" {
		t.Errorf("OpOf() = %q, want %q", got, "links.registry.Create")
	}
}

func TestIs(t *testing.T) {
	err := E("op", Exhausted, errors.New("no free code"))
	if !Is(err, Exhausted) {
		t.Error("Is(err, Exhausted) = false, want true")
	}
	if Is(err, Conflict) {
		t.Error("Is(err, Conflict) = true, want false")
	}
	if Is(nil, Unknown) {
		t.Error("Is(nil, Unknown) = true, want false")
	}
}

func TestKind_Retryable(t *testing.T) {
	retryable := map[Kind]bool{
		Unavailable:  true,
		Exhausted:    true,
		NotFound:     false,
		Conflict:     false,
		Invalid:      false,
		Unauthorized: false,
		Internal:     false,
	}
	for kind, want := range retryable {
		if got := kind.Retryable(); got != want {
			t.Errorf("%v.Retryable() = %v, want %v", kind, got, want)
		}
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Unknown, "Unknown"},
		{NotFound, "NotFound"},
		{Conflict, "Conflict"},
		{Invalid, "Invalid"},
		{Unauthorized, "Unauthorized"},
		{Forbidden, "Forbidden"},
		{Unavailable, "Unavailable"},
		{Exhausted, "Exhausted"},
		{Internal, "Internal"},
		{Kind(99), "Kind(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind.String() = %q, want %q", got, tt.want)
			}
		})
	}
}
