package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID_Plain(t *testing.T) {
	assert.Equal(t, "notes.txt-c0", ChunkID("notes.txt", nil, 0))
}

func TestChunkID_Paginated(t *testing.T) {
	page := 2
	assert.Equal(t, "guide.pdf-p2-c1", ChunkID("guide.pdf", &page, 1))
}

func TestDocument_UnitsWholeText(t *testing.T) {
	doc := Document{Name: "notes.txt", Content: "hello"}

	units := doc.Units()

	assert.Len(t, units, 1)
	assert.Nil(t, units[0].PageIndex)
	assert.Equal(t, "hello", units[0].Text)
}

func TestDocument_UnitsPerPage(t *testing.T) {
	doc := Document{Name: "guide.pdf", Pages: []string{"one", "two"}}

	units := doc.Units()

	assert.Len(t, units, 2)
	if assert.NotNil(t, units[1].PageIndex) {
		assert.Equal(t, 1, *units[1].PageIndex)
	}
	assert.Equal(t, "guide.pdf", units[1].SourceFile)
}

func TestEvidence_Empty(t *testing.T) {
	assert.True(t, Evidence{}.Empty())
	assert.True(t, Evidence{Text: "  \n"}.Empty())
	assert.False(t, Evidence{Text: "x"}.Empty())
}

func TestTransitSnapshot_Report(t *testing.T) {
	snap := TransitSnapshot{Rows: []StatusRow{
		{Section: "長崎～五島航路", Port: "長崎", Time: "08:05", Status: "通常運航"},
		{Section: "長崎～五島航路", Port: "福江", Time: "11:00", Status: "欠航"},
		{Section: "佐世保～上五島航路", Port: "有川", Time: "07:25", Status: "通常運航"},
	}}

	want := "長崎～五島航路\n長崎: 08:05 通常運航\n福江: 11:00 欠航\n佐世保～上五島航路\n有川: 07:25 通常運航\n"
	assert.Equal(t, want, snap.Report())
}

func TestTransitSnapshot_EmptyReport(t *testing.T) {
	assert.Equal(t, "", TransitSnapshot{}.Report())
}
