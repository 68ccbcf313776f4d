package iata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// ValidationResult splits the candidate origins into known (Ok) and unknown (Nok) codes,
// both in input order.
type ValidationResult struct {
	Ok  []string
	Nok []string
}

// Validate checks every candidate against the set of valid codes. Membership is exact,
// a lowercase candidate is not normalized.
func Validate(candidates []string, valid CodeSet) ValidationResult {
	result := ValidationResult{
		Ok:  []string{},
		Nok: []string{},
	}
	for _, c := range candidates {
		if valid.Contains(c) {
			result.Ok = append(result.Ok, c)
			continue
		}
		result.Nok = append(result.Nok, c)
	}
	return result
}

// ValidationError is returned when none of the candidate origins is a valid code.
type ValidationError struct {
	Rejected []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf(
		"none of the origin codes are valid (%s), run the iata command to list the valid codes",
		strings.Join(e.Rejected, ", "),
	)
}

// Check is Validate but it fails with ValidationError when nothing is valid.
func Check(candidates []string, valid CodeSet) (ValidationResult, error) {
	result := Validate(candidates, valid)
	if len(result.Ok) == 0 {
		return result, ValidationError{Rejected: result.Nok}
	}
	return result, nil
}

type suggestion struct {
	code  string
	score float64
}

// Suggest returns at most n valid codes closest to `code` by Jaro-Winkler similarity.
func Suggest(code string, ref Reference, n int) []string {
	if n <= 0 || code == "" {
		return nil
	}
	target := strings.ToUpper(code)

	scored := make([]suggestion, 0, ref.Len())
	for valid := range ref.names {
		scored = append(scored, suggestion{
			code:  valid,
			score: matchr.JaroWinkler(target, valid, false),
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score == scored[j].score {
			return scored[i].code < scored[j].code
		}
		return scored[i].score > scored[j].score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.code
	}
	return out
}
