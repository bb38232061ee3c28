package validate

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "simple address", input: "a@b.co", want: true},
		{name: "subdomain", input: "user@mail.example.com", want: true},
		{name: "missing tld", input: "a@b", want: false},
		{name: "space in local part", input: "a b@c.com", want: false},
		{name: "space around at", input: "a @c.com", want: false},
		{name: "missing local part", input: "@c.com", want: false},
		{name: "missing domain", input: "a@", want: false},
		{name: "empty", input: "", want: false},
		{name: "double at", input: "a@b@c.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRequired(t *testing.T) {
	if !Required("a", "b", "c") {
		t.Error("Required with all fields set = false, want true")
	}
	if Required("a", "", "c") {
		t.Error("Required with empty field = true, want false")
	}
	if Required("a", "   ", "c") {
		t.Error("Required with whitespace field = true, want false")
	}
	if !Required() {
		t.Error("Required with no fields = false, want true")
	}
}

func TestPositiveNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "integer", input: "70", want: true},
		{name: "decimal", input: "1.75", want: true},
		{name: "padded", input: " 80.5 ", want: true},
		{name: "zero", input: "0", want: false},
		{name: "negative", input: "-5", want: false},
		{name: "empty", input: "", want: false},
		{name: "letters", input: "abc", want: false},
		{name: "infinity", input: "Inf", want: false},
		{name: "nan", input: "NaN", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PositiveNumber(tt.input); got != tt.want {
				t.Errorf("PositiveNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNonNegativeInt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "zero is allowed", input: "0", want: true},
		{name: "positive", input: "12", want: true},
		{name: "negative", input: "-1", want: false},
		{name: "decimal", input: "1.5", want: false},
		{name: "empty", input: "", want: false},
		{name: "letters", input: "x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NonNegativeInt(tt.input); got != tt.want {
				t.Errorf("NonNegativeInt(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
