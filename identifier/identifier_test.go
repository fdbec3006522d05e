package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(ids []Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Value
	}
	return out
}

func TestExtract_FirstOccurrenceOrder(t *testing.T) {
	text := "See REQ-F-001 and ADR-002, also REQ-F-001 again and QA-SC-PERF-010."

	ids := Extract(text)
	require.Len(t, ids, 3)
	assert.Equal(t, []string{"REQ-F-001", "ADR-002", "QA-SC-PERF-010"}, values(ids))
	assert.Equal(t, CategoryRequirement, ids[0].Category)
	assert.Equal(t, CategoryDecision, ids[1].Category)
	assert.Equal(t, CategoryScenario, ids[2].Category)
}

func TestExtract_AllCategories(t *testing.T) {
	tests := []struct {
		text     string
		want     string
		category Category
	}{
		{"StR-001", "StR-001", CategoryStakeholder},
		{"StR-CORE-001", "StR-CORE-001", CategoryStakeholder},
		{"REQ-F-001", "REQ-F-001", CategoryRequirement},
		{"REQ-NF-0042", "REQ-NF-0042", CategoryRequirement},
		{"REQ-AUTH-F-001", "REQ-AUTH-F-001", CategoryRequirement},
		{"ADR-INFRA-001", "ADR-INFRA-001", CategoryDecision},
		{"ARC-C-001", "ARC-C-001", CategoryComponent},
		{"ARC-C-CORE-001", "ARC-C-CORE-001", CategoryComponent},
		{"QA-SC-001", "QA-SC-001", CategoryScenario},
		{"TEST-001", "TEST-001", CategoryTest},
		{"TEST-LOGIN-001", "TEST-LOGIN-001", CategoryTest},
		{"TEST-AUTH-LOGIN-001", "TEST-AUTH-LOGIN-001", CategoryTest},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ids := Extract("prefix " + tt.text + " suffix")
			require.Len(t, ids, 1)
			assert.Equal(t, tt.want, ids[0].Value)
			assert.Equal(t, tt.category, ids[0].Category)
		})
	}
}

func TestExtract_NoMatch(t *testing.T) {
	tests := []string{
		"XREQ-F-001",
		"req-f-001",
		"ADR-1",
		"ADR-00001",
		"REQ-001",
		"nothing to see",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			assert.Empty(t, Extract(text))
		})
	}
}

func TestExtract_NestedIdentifiers(t *testing.T) {
	tests := []struct {
		text     string
		want     []string
		category Category
	}{
		{"ARC-C-ADR-001", []string{"ARC-C-ADR-001"}, CategoryComponent},
		{"TEST-ADR-002", []string{"TEST-ADR-002"}, CategoryTest},
		{"TEST-REQ-F-001", []string{"TEST-REQ-F-001"}, CategoryTest},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ids := Extract(tt.text)
			require.Len(t, ids, 1)
			assert.Equal(t, tt.want, values(ids))
			assert.Equal(t, tt.category, ids[0].Category)
		})
	}

	ids := Extract("REQ-F-001 realized by ARC-C-ADR-001 and verified by TEST-ADR-002, see ADR-001")
	assert.Equal(t, []string{"REQ-F-001", "ARC-C-ADR-001", "TEST-ADR-002", "ADR-001"}, values(ids))
}

func TestExtract_StripsPlaceholders(t *testing.T) {
	text := "Template ADR-XXX and REQ-F-000 and REQ-STK-XXX-001 and TEST-YYY but REQ-F-002 is real"

	assert.Equal(t, []string{"REQ-F-002"}, values(Extract(text)))
}

func TestExtractor_LiteralPlaceholders(t *testing.T) {
	e := NewExtractor("REQ-F-999", "  ")

	assert.Equal(t, []string{"REQ-F-001"}, e.ExtractValues("REQ-F-999 REQ-F-001"))
	assert.Equal(t, "ADR-001 ", e.Strip("ADR-001 REQ-F-999"))
}

func TestExtractor_LeadingIdentifier(t *testing.T) {
	e := NewExtractor()

	t.Run("heading", func(t *testing.T) {
		id, rest, ok := e.LeadingIdentifier("## REQ-F-001: Boot time")
		require.True(t, ok)
		assert.Equal(t, "REQ-F-001", id.Value)
		assert.Equal(t, CategoryRequirement, id.Category)
		assert.Equal(t, "Boot time", rest)
	})

	t.Run("bare line", func(t *testing.T) {
		id, rest, ok := e.LeadingIdentifier("ADR-003")
		require.True(t, ok)
		assert.Equal(t, "ADR-003", id.Value)
		assert.Empty(t, rest)
	})

	t.Run("mention mid line", func(t *testing.T) {
		_, _, ok := e.LeadingIdentifier("Refers to REQ-F-001")
		assert.False(t, ok)
	})

	t.Run("placeholder heading", func(t *testing.T) {
		_, _, ok := e.LeadingIdentifier("# ADR-XXX: template")
		assert.False(t, ok)
	})
}

func TestDecode_Lossy(t *testing.T) {
	raw := []byte{'R', 'E', 'Q', '-', 'F', '-', '0', '0', '1', 0xff, ' ', 'A', 'D', 'R', '-', '0', '0', '2'}

	text := Decode(raw)
	assert.Contains(t, text, "\uFFFD")
	assert.Equal(t, []string{"REQ-F-001", "ADR-002"}, values(Extract(text)))

	assert.Equal(t, "plain", Decode([]byte("plain")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		value string
		want  Category
		ok    bool
	}{
		{"REQ-F-001", CategoryRequirement, true},
		{"ARC-C-CORE-001", CategoryComponent, true},
		{"TEST-LOGIN-001", CategoryTest, true},
		{"StR-001", CategoryStakeholder, true},
		{"REQ-F-001 ", "", false},
		{"ADR-1", "", false},
		{"FOO-001", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := Classify(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, CategoryDecision, CategoryOf("ADR-001"))
	assert.Equal(t, Category(""), CategoryOf("nope"))
	assert.True(t, HasCategory("QA-SC-001", CategoryScenario))
	assert.False(t, HasCategory("QA-SC-001", CategoryTest))
}

func TestIdentifier_Qualifier(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"REQ-F-001", ""},
		{"REQ-NF-001", ""},
		{"REQ-AUTH-F-001", "AUTH"},
		{"StR-CORE-001", "CORE"},
		{"ADR-001", ""},
		{"ARC-C-CORE-001", "CORE"},
		{"QA-SC-PERF-010", "PERF"},
		{"TEST-001", ""},
		{"TEST-LOGIN-001", ""},
		{"TEST-AUTH-LOGIN-001", "AUTH"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			id := Identifier{Value: tt.value, Category: CategoryOf(tt.value)}
			assert.Equal(t, tt.want, id.Qualifier())
		})
	}
}

func TestQualifiedAndCanonicalStayDistinct(t *testing.T) {
	ids := Extract("REQ-AUTH-F-001 implements REQ-F-001")
	assert.Equal(t, []string{"REQ-AUTH-F-001", "REQ-F-001"}, values(ids))
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"ADR":         CategoryDecision,
		"decision":    CategoryDecision,
		"req":         CategoryRequirement,
		"QA-SC":       CategoryScenario,
		"arc":         CategoryComponent,
		" test ":      CategoryTest,
		"stakeholder": CategoryStakeholder,
	}
	for in, want := range tests {
		got, ok := ParseCategory(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseCategory("bogus")
	assert.False(t, ok)

	assert.Equal(t, "ADR", CategoryDecision.Label())
	assert.Equal(t, "requirement", CategoryRequirement.Label())
	assert.Equal(t, "QA-SC-", CategoryScenario.Prefix())
}
