package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/pgagent/flags"
)

func TestPrepareDefaultsAndCanonicalizes(t *testing.T) {
	job := &Job{
		Schedules: map[string]*Schedule{
			"weekdays": {Weekdays: flags.Subset("friday", "monday", "tuesday", "wednesday", "thursday")},
			"always":   {Hours: flags.Subset(flags.Hours.Labels()...)},
		},
	}

	require.NoError(t, job.Prepare("report", DefaultJobClass))

	assert.Equal(t, DefaultJobClass, job.Class)
	assert.NotNil(t, job.Steps)
	assert.Equal(t, []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		job.Schedules["weekdays"].Weekdays.Labels())
	assert.Equal(t, flags.KindAll, job.Schedules["always"].Hours.Kind())
}

func TestPrepareRejectsInvalidContent(t *testing.T) {
	tests := []struct {
		name string
		job  *Job
		want error
	}{
		{
			name: "unknown kind",
			job:  &Job{Steps: map[string]*Step{"run": {Kind: "shell", OnError: OnErrorFail}}},
			want: errors.ErrInvalidDocument,
		},
		{
			name: "missing on_error",
			job:  &Job{Steps: map[string]*Step{"run": {Kind: KindSQL}}},
			want: errors.ErrInvalidDocument,
		},
		{
			name: "unknown weekday",
			job:  &Job{Schedules: map[string]*Schedule{"s": {Weekdays: flags.Subset("someday")}}},
			want: errors.ErrInvalidDocument,
		},
		{
			name: "colliding step names",
			job: &Job{Steps: map[string]*Step{
				"Run": {Kind: KindSQL, OnError: OnErrorFail},
				"run": {Kind: KindSQL, OnError: OnErrorFail},
			}},
			want: errors.ErrDuplicateName,
		},
		{
			name: "empty step",
			job:  &Job{Steps: map[string]*Step{"run": nil}},
			want: errors.ErrInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Prepare("job", DefaultJobClass)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestScheduleFields(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	s := &Schedule{Description: "d", Enabled: true, Start: &start, Weekdays: flags.All()}

	names := func(fields []Field) []string {
		var out []string
		for _, f := range fields {
			out = append(out, f.Name)
		}
		return out
	}

	assert.Equal(t, []string{"description", "enabled", "weekdays"}, names(s.Fields()))

	s.HasStart, s.HasEnd = true, true
	assert.Equal(t, []string{"description", "enabled", "start", "end", "weekdays"}, names(s.Fields()))

	v, ok := Lookup(s.Fields(), FieldStart)
	require.True(t, ok)
	assert.Equal(t, &start, v)
	_, ok = Lookup(s.Fields(), FieldMinutes)
	assert.False(t, ok)
}

func TestValuesEqual(t *testing.T) {
	a := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	b := a.In(time.FixedZone("MSK", 3*3600))
	var nilTime *time.Time

	assert.True(t, ValuesEqual(true, true))
	assert.False(t, ValuesEqual(true, false))
	assert.True(t, ValuesEqual("x", "x"))
	assert.False(t, ValuesEqual("sql", KindSQL))
	assert.True(t, ValuesEqual(KindSQL, KindSQL))
	assert.True(t, ValuesEqual(flags.Subset("1"), flags.Subset("1")))
	assert.False(t, ValuesEqual(flags.Subset("1"), flags.All()))
	assert.True(t, ValuesEqual(&a, &b))
	assert.True(t, ValuesEqual(nilTime, nil))
	assert.True(t, ValuesEqual(nil, nilTime))
	assert.False(t, ValuesEqual(&a, nilTime))
	assert.False(t, ValuesEqual(nil, &a))
}

func TestScheduleYAML(t *testing.T) {
	in := map[string]*Schedule{
		"plain": {Description: "x", Enabled: true, Weekdays: flags.Subset("monday")},
		"period": {
			Enabled:  true,
			HasStart: true,
			HasEnd:   true,
			Start:    ptrTime(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)),
			Minutes:  flags.All(),
		},
	}

	out, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `period:
    description: ""
    enabled: true
    start: 2024-03-01T08:00:00Z
    end: null
    minutes: '*'
plain:
    description: x
    enabled: true
    weekdays: [monday]
`, string(out))

	var back map[string]*Schedule
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.True(t, back["period"].HasPeriod())
	assert.False(t, back["plain"].HasPeriod())
	assert.True(t, back["period"].Start.Equal(*in["period"].Start))
	assert.Nil(t, back["period"].End)
	assert.True(t, back["plain"].Weekdays.Equal(flags.Subset("monday")))
}

func TestStepYAMLRejectsUnknownEnum(t *testing.T) {
	var step Step
	err := yaml.Unmarshal([]byte("kind: shell\non_error: fail\n"), &step)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDocument))
	assert.Contains(t, err.Error(), "line 1")
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestScheduleYAMLRejectsUnknownKey(t *testing.T) {
	var s Schedule
	err := yaml.Unmarshal([]byte("enabled: true\nweekday: '*'\n"), &s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDocument))
	assert.Contains(t, err.Error(), "line 2: field weekday not found in schedule")
}

func TestScheduleFieldsEndOnly(t *testing.T) {
	var s Schedule
	require.NoError(t, yaml.Unmarshal([]byte("enabled: true\nend: 2099-01-01T00:00:00Z\n"), &s))
	assert.False(t, s.HasStart)
	assert.True(t, s.HasEnd)
	assert.True(t, s.HasPeriod())

	_, ok := Lookup(s.Fields(), FieldStart)
	assert.False(t, ok)
	v, ok := Lookup(s.Fields(), FieldEnd)
	require.True(t, ok)
	assert.True(t, ValuesEqual(ptrTime(time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)), v))

	out, err := yaml.Marshal(&s)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "start")
	assert.Contains(t, string(out), "end: 2099-01-01T00:00:00Z")
}

func TestJobYAMLTracksPresentKeys(t *testing.T) {
	var full Job
	require.NoError(t, yaml.Unmarshal([]byte("enabled: false\ndescription: x\nclass: Misc\n"), &full))
	assert.Len(t, full.Fields(), 3)

	var partial Job
	require.NoError(t, yaml.Unmarshal([]byte("description: x\n"), &partial))
	require.NoError(t, partial.Prepare("a", DefaultJobClass))
	_, ok := Lookup(partial.Fields(), FieldEnabled)
	assert.False(t, ok)
	v, ok := Lookup(partial.Fields(), FieldClass)
	require.True(t, ok)
	assert.Equal(t, DefaultJobClass, v)

	var complete Job
	require.NoError(t, yaml.Unmarshal([]byte("enabled: true\ndescription: x\n"), &complete))
	require.NoError(t, complete.Prepare("a", DefaultJobClass))
	assert.Equal(t, &Job{
		Enabled:     true,
		Description: "x",
		Class:       DefaultJobClass,
		Schedules:   map[string]*Schedule{},
		Steps:       map[string]*Step{},
	}, &complete)
}

func TestJobYAMLRejectsUnknownKeys(t *testing.T) {
	var job Job
	err := yaml.Unmarshal([]byte("enabled: true\nsteps:\n  s:\n    kind: sql\n    commands: x\n"), &job)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDocument))
	assert.Contains(t, err.Error(), "line 5: field commands not found in step")

	err = yaml.Unmarshal([]byte("enable: true\n"), &job)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDocument))
	assert.Contains(t, err.Error(), "line 1: field enable not found in job")
}
