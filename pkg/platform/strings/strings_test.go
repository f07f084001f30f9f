package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameKey(t *testing.T) {
	assert.Equal(t, "acme holdings", NameKey("  Acme \t Holdings "))
	assert.Equal(t, "", NameKey("   "))
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "legal_type", ToSnakeCase("LegalType"))
	assert.Equal(t, "plan_id", ToSnakeCase("PlanID"))
	assert.Equal(t, "email", ToSnakeCase("Email"))
}

func TestDedupeByKey(t *testing.T) {
	t.Run("case-insensitive with order kept", func(t *testing.T) {
		got := DedupeByKey([]string{"Acme Ltd", "acme  ltd", "", "Acme Group"}, NameKey, 0)
		assert.Equal(t, []string{"Acme Ltd", "Acme Group"}, got)
	})

	t.Run("limit caps output", func(t *testing.T) {
		got := DedupeByKey([]string{"a", "b", "c", "d"}, NameKey, 2)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, DedupeByKey(nil, NameKey, 5))
	})
}

func TestTrimStrings(t *testing.T) {
	a, b := "  x ", "y\n"
	TrimStrings(&a, &b)
	assert.Equal(t, "x", a)
	assert.Equal(t, "y", b)
}
