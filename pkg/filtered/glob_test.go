package filtered

import "testing"

func TestGlob(t *testing.T) {
	match, err := Glob("a*")
	if err != nil {
		t.Fatal(err)
	}
	if !match("apple") || match("banana") {
		t.Error("a* must match apple only")
	}

	nested, err := Glob("fruit/**")
	if err != nil {
		t.Fatal(err)
	}
	if !nested("fruit/red/apple") || nested("veg/carrot") {
		t.Error("fruit/** must match nested paths under fruit")
	}

	if !Not(match)("banana") {
		t.Error("Not must negate")
	}

	if _, err := Glob("[a-"); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
