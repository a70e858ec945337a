package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	data := map[string]any{
		"user":    map[string]any{"name": "Ada", "age": float64(36)},
		"count":   float64(5),
		"ratio":   2.5,
		"enabled": true,
		"nothing": nil,
		"label":   "pump",
		"items":   []any{map[string]any{"id": "a1"}, "second"},
		"tags":    map[string]any{"k": "v"},
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"nested path", "Hello ${user.name}", "Hello Ada"},
		{"missing root left untouched", "${missing}", "${missing}"},
		{"missing nested key renders empty", "[${user.email}]", "[]"},
		{"walk through scalar left untouched", "${label.length}", "${label.length}"},
		{"integral float", "n=${count}", "n=5"},
		{"fractional float", "${ratio}", "2.5"},
		{"bool", "${enabled}", "true"},
		{"nil renders empty", "<${nothing}>", "<>"},
		{"slice index", "${items.0.id}/${items.1}", "a1/second"},
		{"slice index out of range", "[${items.9}]", "[]"},
		{"map renders json", "${tags}", `{"k":"v"}`},
		{"multiple tokens", "${user.name} is ${user.age}", "Ada is 36"},
		{"whitespace inside token", "${ user.name }", "Ada"},
		{"no markers", "plain text", "plain text"},
		{"unterminated marker", "${user.name", "${user.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.template, data))
		})
	}
}

func TestRender_EmptyContext(t *testing.T) {
	assert.Equal(t, "${missing}", Render("${missing}", map[string]any{}))
	assert.Equal(t, "${missing}", Render("${missing}", nil))
}

func TestRender_IdempotentWithoutMarkers(t *testing.T) {
	input := "SELECT * FROM devices WHERE cost > $1"
	once := Render(input, map[string]any{"x": 1})

	assert.Equal(t, input, once)
	assert.Equal(t, once, Render(once, map[string]any{"x": 1}))
}

func TestRenderValue_KeepsTypeForSingleToken(t *testing.T) {
	data := map[string]any{
		"order": map[string]any{"total": float64(42), "lines": []any{"a", "b"}},
	}

	assert.Equal(t, float64(42), RenderValue("${order.total}", data))
	assert.Equal(t, []any{"a", "b"}, RenderValue("${order.lines}", data))
	assert.Equal(t, "total=42", RenderValue("total=${order.total}", data))
	assert.Equal(t, "${unknown}", RenderValue("${unknown}", data))
	assert.Equal(t, 7, RenderValue(7, data))
}

func TestRenderMap_Nested(t *testing.T) {
	data := map[string]any{"device": map[string]any{"id": "d-1"}, "level": float64(3)}

	rendered := RenderMap(map[string]any{
		"target": "${device.id}",
		"meta": map[string]any{
			"level": "${level}",
			"note":  "device ${device.id}",
		},
		"list": []any{"${device.id}", 1},
	}, data)

	assert.Equal(t, "d-1", rendered["target"])
	assert.Equal(t, float64(3), rendered["meta"].(map[string]any)["level"])
	assert.Equal(t, "device d-1", rendered["meta"].(map[string]any)["note"])
	assert.Equal(t, []any{"d-1", 1}, rendered["list"])
	assert.Nil(t, RenderMap(nil, data))
}

func TestRenderStrings(t *testing.T) {
	data := map[string]any{"token": "abc", "page": float64(2)}

	out := RenderStrings(map[string]any{
		"Authorization": "Bearer ${token}",
		"page":          "${page}",
		"limit":         10,
	}, data)

	assert.Equal(t, map[string]string{
		"Authorization": "Bearer abc",
		"page":          "2",
		"limit":         "10",
	}, out)
}

func TestLookup(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": "deep"}},
		"n": nil,
		"l": []any{"x"},
	}

	v, ok := Lookup(data, "a.b.c")
	assert.True(t, ok)
	assert.Equal(t, "deep", v)

	v, ok = Lookup(data, "n")
	assert.True(t, ok)
	assert.Nil(t, v)

	v, ok = Lookup(data, "l.0")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = Lookup(data, "a.x")
	assert.False(t, ok)

	_, ok = Lookup(data, "a.b.c.d")
	assert.False(t, ok)
}

func TestHasMarkers(t *testing.T) {
	assert.True(t, HasMarkers("x ${y}"))
	assert.False(t, HasMarkers("$y"))
	assert.False(t, HasMarkers("${}"))
}

func TestIsToken(t *testing.T) {
	assert.True(t, IsToken("${a.b}"))
	assert.False(t, IsToken("x ${a}"))
	assert.False(t, IsToken("${a} ${b}"))
	assert.False(t, IsToken("plain"))
}
