package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableDDL(t *testing.T, table string) string {
	t.Helper()
	for _, stmt := range statements {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			return stmt
		}
	}
	require.Failf(t, "missing table", "no CREATE TABLE statement for %s", table)
	return ""
}

// Deleting a course must cascade to its sections and their registrations,
// while a course still required as a prerequisite must be kept.
func TestSchemaReferentialActions(t *testing.T) {
	assert.Contains(t, tableDDL(t, "sections"),
		"REFERENCES courses(course_code) ON DELETE CASCADE")
	assert.Contains(t, tableDDL(t, "registrations"),
		"REFERENCES sections(section_id) ON DELETE CASCADE")
	assert.Contains(t, tableDDL(t, "prerequisites"),
		"prereq_code TEXT NOT NULL REFERENCES courses(course_code) ON DELETE RESTRICT")
	assert.Contains(t, tableDDL(t, "program_plans"),
		"REFERENCES courses(course_code) ON DELETE RESTRICT")
}

func TestSchemaSectionChecks(t *testing.T) {
	ddl := tableDDL(t, "sections")
	assert.Contains(t, ddl, "CHECK (max_capacity > 0)")
	assert.Contains(t, ddl, "CHECK (current_enrollment >= 0)")
}
