package ids

import (
	"errors"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"3fa85f64-5717-4562-b3fc-2c963f66afa6", true},
		{"3FA85F64-5717-4562-B3FC-2C963F66AFA6", true},
		{"00000000-0000-0000-0000-000000000000", true},
		{"", false},
		{"not-a-uuid", false},
		{"3fa85f6457174562b3fc2c963f66afa6", false},
		{"{3fa85f64-5717-4562-b3fc-2c963f66afa6}", false},
		{"urn:uuid:3fa85f64-5717-4562-b3fc-2c963f66afa6", false},
		{"3fa85f64-5717-4562-b3fc-2c963f66afaZ", false},
		{"3fa85f64-5717-4562-b3fc-2c963f66afa", false},
		{" 3fa85f64-5717-4562-b3fc-2c963f66afa6", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Valid(tt.input); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("seasonId", "3fa85f64-5717-4562-b3fc-2c963f66afa6"); err != nil {
		t.Errorf("Validate() on valid id = %v, want nil", err)
	}

	err := Validate("leagueId", "nope")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Validate() error = %T, want *ValidationError", err)
	}
	if ve.Field != "leagueId" || ve.Value != "nope" {
		t.Errorf("ValidationError = %+v", ve)
	}
	if err.Error() != "Invalid leagueId" {
		t.Errorf("Error() = %q, want %q", err.Error(), "Invalid leagueId")
	}
}

func TestFilterValid(t *testing.T) {
	a := "3fa85f64-5717-4562-b3fc-2c963f66afa6"
	b := "9b2e5c1a-0d4f-4f3e-8a61-7c2d9e0b1f22"

	got := FilterValid([]string{a, "bad", b, "", a})
	want := []string{a, b, a}
	if len(got) != len(want) {
		t.Fatalf("FilterValid() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FilterValid()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := FilterValid(nil); len(got) != 0 {
		t.Errorf("FilterValid(nil) = %v, want empty", got)
	}
}
