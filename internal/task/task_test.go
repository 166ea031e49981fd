package task

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTask struct {
	BaseTask
}

func newStub(kind string, params Params) *stubTask {
	return &stubTask{BaseTask: NewBaseTask(kind, params)}
}

func (s *stubTask) Run(ctx context.Context, rc RunContext) (Deps, error) {
	return nil, rc.Save(s.Kind())
}

func mustIdentity(t *testing.T, tk Task) Identity {
	t.Helper()
	id, err := IdentityOf(tk)
	require.NoError(t, err)
	return id
}

func TestIdentityIgnoresInsertionOrder(t *testing.T) {
	a := newStub("Branch", NewParams("result", 7, "branch_again", true))
	b := newStub("Branch", NewParams("branch_again", true, "result", 7))

	assert.Equal(t, mustIdentity(t, a), mustIdentity(t, b))
}

func TestIdentityNestedMappings(t *testing.T) {
	nestedA := map[string]interface{}{"mpid": "mp-30", "miller": []int{1, 1, 1}, "settings": map[string]interface{}{"encut": 350, "xc": "rpbe"}}
	nestedB := map[string]interface{}{"settings": map[string]interface{}{"xc": "rpbe", "encut": 350.0}, "miller": []interface{}{1, 1, 1}, "mpid": "mp-30"}

	a := newStub("GenerateSlabs", NewParams("bulk", nestedA, "shift", 0.25))
	b := newStub("GenerateSlabs", NewParams("shift", 0.25, "bulk", nestedB))

	assert.Equal(t, mustIdentity(t, a), mustIdentity(t, b))
}

func TestIdentityIsStable(t *testing.T) {
	tk := newStub("Branch", NewParams("result", 1))
	id := mustIdentity(t, tk)

	assert.True(t, strings.HasPrefix(string(id), "Branch_"))
	assert.Len(t, string(id), len("Branch_")+identityHashLen)
	// fixed digest so a change in canonical encoding is caught
	assert.Equal(t, Identity("Branch_"+sha256Prefix(`{"result":1}`)), id)
}

func TestIdentityDistinguishesKindAndParams(t *testing.T) {
	base := mustIdentity(t, newStub("Branch", NewParams("result", 1)))

	assert.NotEqual(t, base, mustIdentity(t, newStub("Other", NewParams("result", 1))))
	assert.NotEqual(t, base, mustIdentity(t, newStub("Branch", NewParams("result", 2))))
	assert.NotEqual(t, base, mustIdentity(t, newStub("Branch", NewParams("result", "1"))))
}

func TestIdentityErrors(t *testing.T) {
	tests := []struct {
		name string
		task Task
	}{
		{"empty kind", newStub("", NewParams())},
		{"path kind", newStub("../escape", NewParams())},
		{"slash kind", newStub("a/b", NewParams())},
		{"channel value", newStub("Branch", NewParams("ch", make(chan int)))},
		{"nan value", newStub("Branch", NewParams("x", math.NaN()))},
		{"nil task", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IdentityOf(tt.task)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidParameters))
		})
	}
}

func TestParamsImmutable(t *testing.T) {
	p := NewParams("a", 1)
	q := p.With("b", 2)
	r := q.With("a", 3)

	assert.Equal(t, []string{"a"}, p.Names())
	assert.Equal(t, []string{"a", "b"}, q.Names())
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, 1, p.Int("a", 0))
	assert.Equal(t, 3, r.Int("a", 0))

	names := q.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, q.Names())
}

func TestParamsIntValueRejectsLossyConversions(t *testing.T) {
	p := NewParams(
		"half", 7.5,
		"whole", 7.0,
		"huge", uint64(math.MaxUint64),
		"bigfloat", 1e30,
		"frac", json.Number("2.5"),
		"word", "seven",
		"list", []int{1},
	)

	n, err := p.IntValue("whole", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = p.IntValue("missing", 11)
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	for _, name := range []string{"half", "huge", "bigfloat", "frac", "word", "list"} {
		_, err := p.IntValue(name, 0)
		assert.Error(t, err, name)
	}
	assert.Equal(t, 42, p.Int("half", 42), "a fractional value is never truncated")
}

func TestParamsAccessors(t *testing.T) {
	p := NewParams("n", 42, "f", 7.0, "s", "x", "b", true, "num", json.Number("9"), "bs", "true")

	assert.Equal(t, 42, p.Int("n", 0))
	assert.Equal(t, 7, p.Int("f", 0))
	assert.Equal(t, 9, p.Int("num", 0))
	assert.Equal(t, -1, p.Int("missing", -1))
	assert.Equal(t, 42, p.Int("s", 42), "non-numeric falls back to the default")
	assert.Equal(t, "x", p.String("s", ""))
	assert.Equal(t, "42", p.String("n", ""))
	assert.True(t, p.Bool("b", false))
	assert.True(t, p.Bool("bs", false))
	assert.False(t, p.Bool("missing", false))
}

func TestParamsJSONRoundTripKeepsIdentity(t *testing.T) {
	original := newStub("Branch", NewParams("result", 7, "branch_again", true, "tags", []string{"a", "b"}))

	spec, err := SpecOf(original)
	require.NoError(t, err)

	data, err := json.Marshal(spec)
	require.NoError(t, err)

	var decoded Spec
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, spec.Identity, decoded.Identity)
	assert.Equal(t, spec.Identity, mustIdentity(t, newStub(decoded.Kind, decoded.Params)))
}

func TestNewParamsPanicsOnOddArguments(t *testing.T) {
	assert.Panics(t, func() { NewParams("a") })
	assert.Panics(t, func() { NewParams(1, 2) })
}

func TestDescribe(t *testing.T) {
	tk := newStub("Branch", NewParams("result", 7, "branch_again", true))
	assert.Equal(t, "Branch(result=7, branch_again=true)", Describe(tk))
	assert.Equal(t, "<nil>", Describe(nil))
}
