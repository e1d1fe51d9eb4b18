package flags

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/andruche/pgagent-yaml/errors"
)

var dimensions = []*Dimension{Minutes, Hours, MonthDays, Months, Weekdays}

func bitsAt(n int, positions ...int) []bool {
	bits := make([]bool, n)
	for _, p := range positions {
		bits[p] = true
	}
	return bits
}

func TestDimensionLengths(t *testing.T) {
	assert.Equal(t, 60, Minutes.Len())
	assert.Equal(t, 24, Hours.Len())
	assert.Equal(t, 32, MonthDays.Len())
	assert.Equal(t, 12, Months.Len())
	assert.Equal(t, 7, Weekdays.Len())
	assert.Equal(t, LastDay, MonthDays.Labels()[31])
}

func TestCompactQuarterHours(t *testing.T) {
	bits := bitsAt(60, 0, 15, 30, 45)

	flag := Minutes.Compact(bits)

	assert.Equal(t, KindSubset, flag.Kind())
	assert.Equal(t, []string{"0", "15", "30", "45"}, flag.Labels())
	assert.Equal(t, bits, Minutes.Expand(flag))
}

func TestCompactAllAndNone(t *testing.T) {
	for _, d := range dimensions {
		all := make([]bool, d.Len())
		for i := range all {
			all[i] = true
		}
		none := make([]bool, d.Len())

		assert.True(t, d.Compact(all).Equal(All()), d.Name())
		assert.True(t, d.Compact(none).Equal(None()), d.Name())
		assert.Equal(t, all, d.Expand(All()))
		assert.Equal(t, none, d.Expand(None()))
		assert.Equal(t, none, d.Expand(Flag{}))
	}
}

func TestLastDayParticipates(t *testing.T) {
	// 31 numeric days set but not the sentinel: not All
	bits := make([]bool, 32)
	for i := 0; i < 31; i++ {
		bits[i] = true
	}
	flag := MonthDays.Compact(bits)
	require.Equal(t, KindSubset, flag.Kind())
	assert.Len(t, flag.Labels(), 31)

	onlyLast := MonthDays.Compact(bitsAt(32, 31))
	assert.Equal(t, []string{LastDay}, onlyLast.Labels())
	assert.Equal(t, bitsAt(32, 31), MonthDays.Expand(onlyLast))
}

func TestSubsetFollowsDimensionOrder(t *testing.T) {
	flag := Weekdays.Canonical(Subset("friday", "monday", "monday"))
	assert.Equal(t, []string{"monday", "friday"}, flag.Labels())

	full := Weekdays.Canonical(Subset(Weekdays.Labels()...))
	assert.Equal(t, KindAll, full.Kind())

	empty := Weekdays.Canonical(Subset())
	assert.Equal(t, KindNone, empty.Kind())

	assert.False(t, Weekdays.Canonical(Flag{}).IsSet())
}

func TestRoundTripRandomVectors(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, d := range dimensions {
		for n := 0; n < 200; n++ {
			bits := make([]bool, d.Len())
			for i := range bits {
				bits[i] = rng.Intn(3) == 0
			}
			assert.Equal(t, bits, d.Expand(d.Compact(bits)), d.Name())
		}
	}
}

func TestCompactPanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() { Hours.Compact(make([]bool, 23)) })
	assert.Panics(t, func() { NewDimension("dup", "a", "a") })
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Weekdays.Validate(Subset("monday")))
	assert.NoError(t, Weekdays.Validate(All()))

	err := Weekdays.Validate(Subset("monday", "funday"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDocument))
	assert.Contains(t, err.Error(), `weekdays: unknown label "funday"`)
}

func TestFormatBits(t *testing.T) {
	assert.Equal(t, "{t,f,t}", FormatBits([]bool{true, false, true}))
	assert.Equal(t, "{}", FormatBits(nil))
}

func TestFlagString(t *testing.T) {
	assert.Equal(t, "*", All().String())
	assert.Equal(t, "-", None().String())
	assert.Equal(t, "[1, 2]", Subset("1", "2").String())
	assert.Equal(t, "<unset>", Flag{}.String())
}

type holder struct {
	Minutes  Flag `yaml:"minutes,omitempty"`
	Weekdays Flag `yaml:"weekdays,omitempty"`
	Days     Flag `yaml:"monthdays,omitempty"`
}

func TestYAMLRoundTrip(t *testing.T) {
	in := holder{
		Minutes:  Subset("0", "30"),
		Weekdays: All(),
		Days:     Subset("1", LastDay),
	}

	out, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "minutes: [0, 30]\nweekdays: '*'\nmonthdays: [1, last day]\n", string(out))

	var back holder
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.True(t, back.Minutes.Equal(in.Minutes))
	assert.True(t, back.Weekdays.Equal(in.Weekdays))
	assert.True(t, back.Days.Equal(in.Days))
}

func TestYAMLOmitsUnset(t *testing.T) {
	out, err := yaml.Marshal(holder{Weekdays: None()})
	require.NoError(t, err)
	assert.Equal(t, "weekdays: '-'\n", string(out))
}

func TestYAMLBlockSequenceAndErrors(t *testing.T) {
	var h holder
	require.NoError(t, yaml.Unmarshal([]byte("weekdays:\n  - monday\n  - friday\nminutes: ~\n"), &h))
	assert.Equal(t, []string{"monday", "friday"}, h.Weekdays.Labels())
	assert.False(t, h.Minutes.IsSet())

	err := yaml.Unmarshal([]byte("weekdays: sometimes\n"), &h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag set must be")

	err = yaml.Unmarshal([]byte("weekdays: {a: b}\n"), &h)
	require.Error(t, err)
}
