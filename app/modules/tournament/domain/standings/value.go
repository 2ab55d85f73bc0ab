package standings

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ValueKind tags a MetricValue.
type ValueKind int

const (
	KindPoints ValueKind = iota + 1
	KindNTimesResult
	KindTSS
	KindDsWins
	KindAverage
	KindCount
)

var kindNames = map[ValueKind]string{
	KindPoints:       "points",
	KindNTimesResult: "n_times_result",
	KindTSS:          "tss",
	KindDsWins:       "ds_wins",
	KindAverage:      "average",
	KindCount:        "count",
}

func (k ValueKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ErrIncomparable is returned when values of different kinds are compared.
var ErrIncomparable = errors.New("metric values of different kinds are not comparable")

// MetricValue is one metric's value for one team or speaker. Integer
// variants use N; decimal variants use D. NTimesResult also carries P.
type MetricValue struct {
	Kind ValueKind
	N    int64
	P    int
	D    decimal.Decimal
}

func Points(n int64) MetricValue { return MetricValue{Kind: KindPoints, N: n} }

func NTimesResult(p int, count int64) MetricValue {
	return MetricValue{Kind: KindNTimesResult, P: p, N: count}
}

func TSS(d decimal.Decimal) MetricValue { return MetricValue{Kind: KindTSS, D: d} }

func DsWins(n int64) MetricValue { return MetricValue{Kind: KindDsWins, N: n} }

func Average(d decimal.Decimal) MetricValue { return MetricValue{Kind: KindAverage, D: d} }

func Count(n int64) MetricValue { return MetricValue{Kind: KindCount, N: n} }

func (v MetricValue) decimalKind() bool {
	return v.Kind == KindTSS || v.Kind == KindAverage
}

// Compare orders two values of the same kind. Higher is better for every
// kind, so a positive result means v ranks above o.
func (v MetricValue) Compare(o MetricValue) (int, error) {
	if v.Kind != o.Kind {
		return 0, fmt.Errorf("%w: %s vs %s", ErrIncomparable, v.Kind, o.Kind)
	}
	if v.Kind == KindNTimesResult && v.P != o.P {
		return 0, fmt.Errorf("%w: n_times_result(%d) vs n_times_result(%d)", ErrIncomparable, v.P, o.P)
	}
	if v.decimalKind() {
		return v.D.Cmp(o.D), nil
	}
	switch {
	case v.N < o.N:
		return -1, nil
	case v.N > o.N:
		return 1, nil
	default:
		return 0, nil
	}
}

func (v MetricValue) String() string {
	if v.decimalKind() {
		return v.D.String()
	}
	return fmt.Sprintf("%d", v.N)
}

type metricValueJSON struct {
	Kind  string `json:"kind"`
	P     *int   `json:"p,omitempty"`
	Value string `json:"value"`
}

func (v MetricValue) MarshalJSON() ([]byte, error) {
	out := metricValueJSON{Kind: v.Kind.String(), Value: v.String()}
	if v.Kind == KindNTimesResult {
		p := v.P
		out.P = &p
	}
	return json.Marshal(out)
}

// CompareTuples compares two tuples lexicographically.
func CompareTuples(a, b []MetricValue) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: tuple arity %d vs %d", ErrIncomparable, len(a), len(b))
	}
	for i := range a {
		c, err := a[i].Compare(b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}
