package segment

import "testing"

func TestTransformConventions(t *testing.T) {
	cases := []struct {
		format Format
		in     string
		want   string
	}{
		{Camel, "hello_world", "helloWorld"},
		{Camel, "helloWorld", "helloWorld"},
		{Pascal, "hello_world", "HelloWorld"},
		{Pascal, "HelloWorld", "HelloWorld"},
		{Snake, "hello-World", "hello_world"},
		{Snake, "hello_world", "hello_world"},
		{Kebab, "hello_world", "hello-world"},
		{Kebab, "hello-world", "hello-world"},
		{Constant, "hello_world", "HELLO_WORLD"},
		{Constant, "hello-world", "HELLO_WORLD"},
		{Flat, "hello_world", "helloworld"},
		{Unchanged, "Hello_World", "Hello_World"},
	}

	for _, tc := range cases {
		f := Formatter{Format: tc.format}
		got, err := f.Transform(tc.in)
		if err != nil {
			t.Fatalf("Transform(%q, %s) returned error: %v", tc.in, tc.format, err)
		}
		if got != tc.want {
			t.Errorf("Transform(%q, %s) = %q, want %q", tc.in, tc.format, got, tc.want)
		}
	}
}

func TestTransformIdempotent(t *testing.T) {
	formats := []Format{Camel, Pascal, Snake, Kebab, Constant, Flat, Unchanged}
	names := []string{"hello_world", "user-id", "Already", "HELLO_WORLD", "mixed_Case-name", "x"}

	for _, format := range formats {
		f := Formatter{Format: format}
		for _, name := range names {
			once, err := f.Transform(name)
			if err != nil {
				t.Fatalf("Transform(%q, %s): %v", name, format, err)
			}
			twice, err := f.Transform(once)
			if err != nil {
				t.Fatalf("Transform(%q, %s): %v", once, format, err)
			}
			if once != twice {
				t.Errorf("%s not idempotent for %q: first %q, second %q", format, name, once, twice)
			}
		}
	}
}

func TestTransformEmptyName(t *testing.T) {
	f := Formatter{Format: Kebab}
	if _, err := f.Transform(""); err != ErrEmpty {
		t.Errorf("expected ErrEmpty for empty name, got %v", err)
	}
}

func TestKnownPathsOverride(t *testing.T) {
	f := Formatter{
		Format:     Pascal,
		KnownPaths: map[string]string{"special": "known"},
	}

	got, err := f.Transform("special")
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if got != "known" {
		t.Errorf("expected known-path override %q, got %q", "known", got)
	}

	got, err = f.Transform("hello_world")
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if got != "HelloWorld" {
		t.Errorf("expected convention transform for unknown name, got %q", got)
	}
}

func TestTransformAsOverridesDefault(t *testing.T) {
	f := Formatter{Format: Kebab}
	got, err := f.TransformAs("user_id", Camel)
	if err != nil {
		t.Fatalf("TransformAs returned error: %v", err)
	}
	if got != "userId" {
		t.Errorf("expected per-segment camel override, got %q", got)
	}
}

func TestUnknownFormatFallsBackToKebab(t *testing.T) {
	f := Formatter{Format: Format("bogus")}
	got, err := f.Transform("hello_world")
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if got != "hello-world" {
		t.Errorf("expected kebab fallback, got %q", got)
	}
}

func TestFormatValid(t *testing.T) {
	for _, f := range []Format{Camel, Pascal, Snake, Kebab, Constant, Flat, Unchanged} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if Format("bogus").Valid() {
		t.Error("bogus format should not be valid")
	}
}
