package codes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassCode(t *testing.T) {
	tests := []struct {
		name      string
		subject   string
		yearLevel string
		batch     string
		subBatch  string
		classType string
		want      string
	}{
		{"group class", "Math", "Year 10", "A", "", "Group", "MAT10AG"},
		{"sub batch uppercased", "Physics", "Year 12", "B", "mon pm", "Individual", "PHY12BMONPMI"},
		{"subject spaces stripped", "Co Sc", "Year 9", "C", "", "", "COS9C"},
		{"no digits in year", "Chemistry", "VCE", "A", "", "Group", "CHEAG"},
		{"short subject", "IT", "Year 8", "A", "", "", "IT8A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassCode(tt.subject, tt.yearLevel, tt.batch, tt.subBatch, tt.classType)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassCodeDeterministic(t *testing.T) {
	first := ClassCode("Biology", "Year 11", "B", "Sat", "Group")
	second := ClassCode("Biology", "Year 11", "B", "Sat", "Group")
	assert.Equal(t, first, second)
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "Math - Year 10 - A", ClassName("Math", "Year 10", "A", ""))
	assert.Equal(t, "Math - Year 10 - A - Sat", ClassName("Math", "Year 10", "A", "Sat"))
	assert.Equal(t, "Math - Year 10 - A - Sat", ClassName("Math", "Year 10", "A", "  Sat  "))
}

func TestStudentCode(t *testing.T) {
	assert.Equal(t, "STU-2025-0001", StudentCode(2025, 1))
	assert.Equal(t, "STU-2025-0042", StudentCode(2025, 42))
	assert.Equal(t, "STU-2025-", StudentCodePrefix(2025))
}

func TestNextStudentSeq(t *testing.T) {
	seq, err := NextStudentSeq("")
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	seq, err = NextStudentSeq("STU-2025-0001")
	require.NoError(t, err)
	assert.Equal(t, 2, seq)

	seq, err = NextStudentSeq("STU-2025-0399")
	require.NoError(t, err)
	assert.Equal(t, 400, seq)
}

func TestNextStudentSeqMalformed(t *testing.T) {
	seq, err := NextStudentSeq("STU-2025-XYZ")
	require.Error(t, err)
	assert.Equal(t, 1, seq)

	seq, err = NextStudentSeq("garbage")
	require.Error(t, err)
	assert.Equal(t, 1, seq)
}
