package task

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/maxkimambo/gasrun/internal/errors"
)

// Identity is the stable, content-derived name of a task: <kind>_<hash>.
type Identity string

// identityHashLen is the number of hex characters of the parameter digest kept.
const identityHashLen = 32

var kindPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidKind reports whether kind is usable as an artifact directory name.
func ValidKind(kind string) bool {
	return kindPattern.MatchString(kind) && kind != "." && kind != ".."
}

// IdentityOf derives the identity of t from its kind and the SHA-256 of
// its canonical parameter encoding.
func IdentityOf(t Task) (Identity, error) {
	if t == nil {
		return "", errors.NewInvalidParametersError("<nil>", fmt.Errorf("nil task"))
	}
	kind := t.Kind()
	if !ValidKind(kind) {
		return "", errors.NewInvalidParametersError(kind, fmt.Errorf("kind %q is not a valid name", kind))
	}
	canon, err := t.Params().Canonical()
	if err != nil {
		return "", errors.NewInvalidParametersError(kind, err)
	}
	sum := sha256.Sum256(canon)
	return Identity(kind + "_" + hex.EncodeToString(sum[:])[:identityHashLen]), nil
}

// Spec is the wire form of a task.
type Spec struct {
	Kind     string   `json:"kind"`
	Identity Identity `json:"identity"`
	Params   Params   `json:"params"`
}

// SpecOf returns the wire form of t.
func SpecOf(t Task) (Spec, error) {
	id, err := IdentityOf(t)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Kind: t.Kind(), Identity: id, Params: t.Params()}, nil
}
