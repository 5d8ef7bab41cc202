package model

import "testing"

func TestCanonicalName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Banana", "banana"},
		{"Grilled  Chicken-Breast", "grilled_chicken_breast"},
		{"  fried rice  ", "fried_rice"},
		{"--chips--", "chips"},
		{"   ", "unknown"},
		{"", "unknown"},
		{"a - b", "a_b"},
	}
	for _, c := range cases {
		if got := CanonicalName(c.in); got != c.want {
			t.Errorf("CanonicalName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalNameIdempotent(t *testing.T) {
	for _, in := range []string{"Grilled  Chicken-Breast", "  Pizza ", "", "non_food"} {
		once := CanonicalName(in)
		if twice := CanonicalName(once); twice != once {
			t.Errorf("CanonicalName not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestHumanLabel(t *testing.T) {
	if got := HumanLabel("grilled_chicken_breast"); got != "grilled chicken breast" {
		t.Errorf("HumanLabel = %q", got)
	}
	if got := HumanLabel("banana"); got != "banana" {
		t.Errorf("HumanLabel = %q", got)
	}
}

func TestIsNonFood(t *testing.T) {
	for _, label := range []string{"Plate", "fork", "  Cup ", "non-food", "unknown", ""} {
		if !IsNonFood(label) {
			t.Errorf("IsNonFood(%q) = false, want true", label)
		}
	}
	for _, label := range []string{"banana", "fried rice", "soup"} {
		if IsNonFood(label) {
			t.Errorf("IsNonFood(%q) = true, want false", label)
		}
	}
}

func TestSplitLabels(t *testing.T) {
	got := SplitLabels("Pizza,  Cola , ,Fries")
	want := []string{"Pizza", "Cola", "Fries"}
	if len(got) != len(want) {
		t.Fatalf("SplitLabels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitLabels[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMacrosArithmetic(t *testing.T) {
	a := Macros{Calories: 100, Protein: 10, Carbs: 20, Fat: 5}
	b := Macros{Calories: 50, Protein: 5, Carbs: 10, Fat: 2}

	sum := a.Add(b)
	if sum.Calories != 150 || sum.Protein != 15 || sum.Carbs != 30 || sum.Fat != 7 {
		t.Errorf("Add = %+v", sum)
	}

	scaled := a.Scale(2)
	if scaled.Calories != 200 || scaled.Protein != 20 || scaled.Carbs != 40 || scaled.Fat != 10 {
		t.Errorf("Scale = %+v", scaled)
	}

	if !(Macros{}).IsZero() {
		t.Error("zero macros should report IsZero")
	}
	if a.IsZero() {
		t.Error("non-zero macros should not report IsZero")
	}
}
