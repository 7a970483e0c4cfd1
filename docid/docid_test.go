package docid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"EFTA00123456", "EFTA00123456"},
		{"exhibit EFTA01234567 page 4", "EFTA01234567"},
		{"DOJ-OGR-123", "DOJ-OGR-00000123"},
		{"doj ogr 456", "DOJ-OGR-00000456"},
		{"DOJ_OGR_00001234", "DOJ-OGR-00001234"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Canonicalize(tc.in), "input %q", tc.in)
	}

	// EFTA wins when both appear
	assert.Equal(t, "EFTA00123456", Canonicalize("DOJ-OGR-99 EFTA00123456"))

	// free-form references hash stably
	h := Canonicalize("Flight log vol. 2, p. 17")
	assert.True(t, strings.HasPrefix(h, "DOC-"))
	assert.Len(t, h, 16)
	assert.Equal(t, h, Canonicalize("Flight log vol. 2, p. 17"))
}

func TestSortRefsClassOrdering(t *testing.T) {
	refs := []string{"DOC-abc123def456", "DOJ-OGR-00000002", "EFTA00000009", "DOJ-OGR-00000001", "EFTA00000001"}
	SortRefs(refs)
	assert.Equal(t, []string{
		"EFTA00000001", "EFTA00000009",
		"DOJ-OGR-00000001", "DOJ-OGR-00000002",
		"DOC-abc123def456",
	}, refs)
}

func TestMergeRefsDedupesAndCaps(t *testing.T) {
	got := MergeRefs(
		[]string{"DOC-aaaaaaaaaaaa", "EFTA00000002"},
		[]string{"EFTA00000002", "EFTA00000001", ""},
		2,
	)
	assert.Equal(t, []string{"EFTA00000001", "EFTA00000002"}, got)

	// no cap
	got = MergeRefs([]string{"EFTA00000001"}, nil, 0)
	assert.Equal(t, []string{"EFTA00000001"}, got)
}
