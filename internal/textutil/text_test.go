package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "   ", nil},
		{"single without terminator", "sin punto final", []string{"sin punto final"}},
		{"two sentences", "Primera oración. Segunda oración.", []string{"Primera oración.", "Segunda oración."}},
		{"punctuation runs", "¿En serio?! Sí. Claro", []string{"¿En serio?!", "Sí.", "Claro"}},
		{"decimal stays", "Cuesta 3.50 pesos. Gracias", []string{"Cuesta 3.50 pesos.", "Gracias"}},
		{"newlines count as space", "Uno.\nDos!", []string{"Uno.", "Dos!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}

func Test_Tokenize(t *testing.T) {
	assert.Equal(t, []string{"cómo", "registro", "una", "mascota"}, Tokenize("¿Cómo registro una mascota?"))
	assert.Equal(t, []string{"don't", "panic", "42"}, Tokenize("Don't PANIC: 42"))
}

func Test_Keywords(t *testing.T) {
	assert.Equal(t, []string{"registro", "mascota"}, Keywords("¿cómo registro una mascota? mascota"))
	assert.Empty(t, Keywords("the of y de"))
}
