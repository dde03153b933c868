package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Normalizer_Normalize(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ligature folded", "ﬁcha de aﬁliación", "ficha de afiliación"},
		{"private use ti glyph", "Ges\uF02Dón de trámites", "Gestión de trámites"},
		{"broken glyph inside word", "Ges-ón de mascotas", "Gestión de mascotas"},
		{"mojibake repaired", "informaciÃ³n del dueÃ±o", "información del dueño"},
		{"double mojibake repaired", "informaciÃƒÂ³n", "información"},
		{"symbols stripped", "► Paso • uno ↑", "Paso uno"},
		{"control characters stripped", "hola\x02mundo\x0b fin", "holamundo fin"},
		{"zero width stripped", "regis\u200btro", "registro"},
		{"whitespace collapsed", "  uno \t dos\n\n tres  ", "uno dos tres"},
		{"hidden mojibake pair repaired", "cafÃ\u200b©", "café"},
		{"legit latin text untouched", "AÑO NÃO ¿Qué?", "AÑO NÃO ¿Qué?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func Test_Normalizer_NormalizeLines(t *testing.T) {
	n := NewNormalizer(nil)

	got := n.NormalizeLines("  REGISTRO   DE MASCOTAS \r\n\n\tcomplete  el formulario\u200b\n   \n•\nfin ")
	assert.Equal(t, "REGISTRO DE MASCOTAS\ncomplete el formulario\nfin", got)
}

func Test_Normalizer_Idempotent(t *testing.T) {
	n := NewNormalizer(nil)

	samples := []string{
		"",
		"   ",
		"ﬁcha Ges\uF02Dón informaciÃ³n ► • \x02",
		"Para registrar una mascota, complete el formulario en la sección Registro.",
		"cafÃ\u200b© informaciÃ\u200b³n",
		"línea uno\n\n  línea   dos\r\nlínea tres",
		"AÑO NÃO Ã ³ Ã x",
		"ÃƒÂ©ÃƒÂ© \u00ad\ufeff texto",
	}

	for _, s := range samples {
		once := n.Normalize(s)
		assert.Equal(t, once, n.Normalize(once), "flat %q", s)

		lines := n.NormalizeLines(s)
		assert.Equal(t, lines, n.NormalizeLines(lines), "lines %q", s)
	}
}

func Test_Dictionary_WordMode(t *testing.T) {
	d, err := NewDictionary([]DictionaryEntry{{Match: "regstro", Replace: "registro", Mode: ModeWord}})
	require.NoError(t, err)

	assert.Equal(t, "registro y regstros; registro.", d.Apply("Regstro y regstros; REGSTRO."))
	assert.Equal(t, "registro", d.Apply("regstro"))
}

func Test_Dictionary_SubstringAndRegex(t *testing.T) {
	d, err := NewDictionary([]DictionaryEntry{
		{Match: "tramit", Replace: "trámit"},
		{Match: `m[a@]scota`, Replace: "mascota", Mode: ModeRegex},
		{Match: "Muni", Replace: "Municipalidad", Mode: ModeWord, CaseSensitive: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())

	assert.Equal(t, "trámites de la mascota en la Municipalidad, muni",
		d.Apply("TRAMITes de la M@scota en la Muni, muni"))
}

func Test_ParseDictionary_Errors(t *testing.T) {
	_, err := ParseDictionary([]byte("entries:\n  - match: x\n    mode: fuzzy\n"))
	assert.Error(t, err)

	_, err = ParseDictionary([]byte("entries:\n  - match: \"(\"\n    mode: regex\n"))
	assert.Error(t, err)

	_, err = ParseDictionary([]byte("entries:\n  - replace: y\n"))
	assert.Error(t, err)

	_, err = ParseDictionary([]byte("entries: ["))
	assert.Error(t, err)
}

func Test_DefaultDictionary(t *testing.T) {
	d := DefaultDictionary()
	assert.Greater(t, d.Len(), 0)
	assert.Equal(t, "participación", d.Apply("par\uF02Dcipación"))
}
