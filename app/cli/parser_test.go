package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/vaccine-scheduler-go/app/cli"
)

func Test_Parse(t *testing.T) {
	tests := []struct {
		raw   string
		want  cli.Line
		arity int
	}{
		{"", cli.Line{}, 0},
		{"   ", cli.Line{}, 0},
		{"Quit", cli.Line{Operation: "quit", Args: []string{}}, 1},
		{"RESERVE 03-01-2024   Pfizer", cli.Line{Operation: "reserve", Args: []string{"03-01-2024", "pfizer"}}, 3},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			// act
			line := cli.Parse(tc.raw)

			// assert
			assert.Equal(t, tc.want, line)
			assert.Equal(t, tc.arity, line.Arity())
		})
	}
}
