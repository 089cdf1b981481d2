package terminal

import (
	"strings"
	"testing"
)

func TestConfirm_YesInput(t *testing.T) {
	input := strings.NewReader("y\n")
	output := &strings.Builder{}

	result, err := ConfirmWithIO("Overwrite config?", []string{"/tmp/config.yaml"}, input, output)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result {
		t.Error("Expected confirmation to succeed")
	}

	outputStr := output.String()
	if !strings.Contains(outputStr, "Overwrite config?") {
		t.Error("Expected question in output")
	}
	if !strings.Contains(outputStr, "/tmp/config.yaml") {
		t.Error("Expected details in output")
	}
}

func TestConfirm_InvalidThenValid(t *testing.T) {
	input := strings.NewReader("maybe\nyes\n")
	output := &strings.Builder{}

	result, err := ConfirmWithIO("Proceed?", nil, input, output)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result {
		t.Error("Expected confirmation to succeed after invalid input")
	}
	if !strings.Contains(output.String(), "Please answer y or n") {
		t.Error("Expected retry hint in output")
	}
}

func TestConfirm_Answers(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"Y\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"No\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		output := &strings.Builder{}
		result, err := ConfirmWithIO("Proceed?", nil, strings.NewReader(tt.input), output)
		if err != nil {
			t.Errorf("Input %q: expected no error, got %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("Input %q: expected %v, got %v", tt.input, tt.expected, result)
		}
	}
}
