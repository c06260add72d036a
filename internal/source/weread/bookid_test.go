package weread

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeBookID_KnownValues(t *testing.T) {
	// Reference values produced by the reader itself; these must never drift
	// because the service resolves them back to the book.
	tests := []struct {
		bookID string
		want   string
	}{
		{"3300028078", "c5c32170813ab7177g0181ae"},
		{"813790", "3d7325105c6ade3d7a7f600"},
		{"26425464", "06932070719338780696c05"},
		{"12345678901234567890", "fd832710775bcd15g06bc614eg025a1f7"},
		{"CB_1KQ6eDgaJ61xLq4q1wgHcx2y", "fa042053643425f314b5136654467614a3631784c7134713177674863783279a94"},
		{"e0032e070899e30ae07a3ea2a65b27a1_4OUsB7mkx", "d7642dd5465303033326530373038393965333061653037613365613261363562323761315f344f557342376d6b78daa"},
	}

	for _, tt := range tests {
		t.Run(tt.bookID, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeBookID(tt.bookID))
		})
	}
}

func TestEncodeBookID_Deterministic(t *testing.T) {
	for _, id := range []string{"813790", "CB_1KQ6eDgaJ61xLq4q1wgHcx2y", "0"} {
		assert.Equal(t, EncodeBookID(id), EncodeBookID(id))
	}
}

func TestEncodeBookID_DistinctInputs(t *testing.T) {
	ids := []string{"813790", "813791", "26425464", "CB_1KQ6eDgaJ61xLq4q1wgHcx2y", "3300028078"}
	seen := make(map[string]string)
	for _, id := range ids {
		encoded := EncodeBookID(id)
		if prev, ok := seen[encoded]; ok {
			t.Fatalf("collision: %q and %q both encode to %q", prev, id, encoded)
		}
		seen[encoded] = id
	}
}

func TestTransformBookID(t *testing.T) {
	code, segments := transformBookID("3300028078")
	assert.Equal(t, "3", code)
	assert.Equal(t, []string{"13ab7177", "8"}, segments)

	code, segments = transformBookID("12345678901234567890")
	assert.Equal(t, "3", code)
	assert.Equal(t, []string{"75bcd15", "bc614e", "5a"}, segments)

	code, segments = transformBookID("ab1")
	assert.Equal(t, "4", code)
	assert.Equal(t, []string{"616231"}, segments)
}

func TestReaderURL(t *testing.T) {
	assert.Equal(t,
		"https://weread.qq.com/web/reader/3d7325105c6ade3d7a7f600",
		ReaderURL("813790"),
	)
}
