package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirm asks a yes/no question on stdin.
func Confirm(question string, details ...string) (bool, error) {
	return ConfirmWithIO(question, details, nil, nil)
}

// ConfirmWithIO asks a yes/no question with provided IO (for testing).
// End of input counts as no.
func ConfirmWithIO(question string, details []string, input io.Reader, output io.Writer) (bool, error) {
	if input == nil {
		input = os.Stdin
	}
	if output == nil {
		output = os.Stdout
	}

	fmt.Fprintf(output, "\n%s\n", question)
	for _, d := range details {
		fmt.Fprintf(output, "  %s\n", d)
	}
	fmt.Fprintf(output, "\n[y] yes  [n] no\n> ")

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true, nil
		case "n", "no", "":
			return false, nil
		default:
			fmt.Fprintf(output, "Please answer y or n: ")
		}
	}

	if err := scanner.Err(); err != nil {
		return false, err
	}

	return false, nil
}
