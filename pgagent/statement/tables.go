package statement

import (
	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/pgagent/document"
)

// Table describes one pgagent table: its name column, the column pointing at
// the owning job (empty for jobs) and the canonical field to column mapping.
type Table struct {
	Name       string
	IDColumn   string
	NameColumn string
	JobColumn  string
	columns    map[string]string
}

var (
	Jobs = Table{
		Name:       "pgagent.pga_job",
		IDColumn:   "jobid",
		NameColumn: "jobname",
		columns: map[string]string{
			document.FieldClass:       "jobjclid",
			document.FieldEnabled:     "jobenabled",
			document.FieldDescription: "jobdesc",
		},
	}

	Steps = Table{
		Name:       "pgagent.pga_jobstep",
		IDColumn:   "jstid",
		NameColumn: "jstname",
		JobColumn:  "jstjobid",
		columns: map[string]string{
			document.FieldEnabled:          "jstenabled",
			document.FieldDescription:      "jstdesc",
			document.FieldKind:             "jstkind",
			document.FieldOnError:          "jstonerror",
			document.FieldConnectionString: "jstconnstr",
			document.FieldLocalDatabase:    "jstdbname",
			document.FieldCode:             "jstcode",
		},
	}

	Schedules = Table{
		Name:       "pgagent.pga_schedule",
		IDColumn:   "jscid",
		NameColumn: "jscname",
		JobColumn:  "jscjobid",
		columns: map[string]string{
			document.FieldDescription: "jscdesc",
			document.FieldEnabled:     "jscenabled",
			document.FieldStart:       "jscstart",
			document.FieldEnd:         "jscend",
			document.FieldMinutes:     "jscminutes",
			document.FieldHours:       "jschours",
			document.FieldMonthDays:   "jscmonthdays",
			document.FieldMonths:      "jscmonths",
			document.FieldWeekdays:    "jscweekdays",
		},
	}

	// JobClasses is only referenced by name when resolving a job's class.
	JobClasses = Table{
		Name:       "pgagent.pga_jobclass",
		IDColumn:   "jclid",
		NameColumn: "jclname",
	}
)

// Column returns the physical column of a canonical field.
func (t Table) Column(field string) (string, error) {
	col, ok := t.columns[field]
	if !ok {
		return "", errors.Newf("%s has no column for field %q", t.Name, field)
	}
	return col, nil
}

// HasParent reports whether rows of t belong to a job.
func (t Table) HasParent() bool { return t.JobColumn != "" }
