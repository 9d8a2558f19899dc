package evaluator

import "fmt"

func errReuseCycle(environment string) error {
	return fmt.Errorf("evaluator: environment reuse chain too deep at %q, possible cycle", environment)
}

// errReuseTargetMissing is distinct from the plain "environment not
// configured" result: it fires only when a `reuse` pointer names an
// environment key that does not exist at all, which is always an
// unrecoverable design error in the datafile rather than this flag simply
// not being configured for the environment the caller asked about.
func errReuseTargetMissing(environment string) error {
	return fmt.Errorf("evaluator: environment reuse points at missing environment %q", environment)
}
