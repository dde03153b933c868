package retrieval

import (
	"strings"
)

// Intent is a fixed-phrase shortcut that bypasses similarity search
type Intent struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
	Reply    string   `yaml:"reply"`
	// ListSections appends the corpus section titles to the reply
	ListSections bool `yaml:"list_sections"`
}

// DefaultIntents returns the built-in options and greeting shortcuts
func DefaultIntents() []Intent {
	return []Intent{
		{
			Name:         "options",
			Triggers:     []string{"opciones", "show options", "menú"},
			Reply:        "You can ask about any of these sections:",
			ListSections: true,
		},
		{
			Name:     "greeting",
			Triggers: []string{"hola", "buenos días", "buenas tardes", "buenas noches", "saludos", "hello"},
			Reply:    "Hello! Ask me anything about the loaded documents.",
		},
	}
}

// matchIntent returns the first intent with a trigger contained in the lowercased question
func matchIntent(intents []Intent, question string) (Intent, bool) {
	q := strings.ToLower(question)
	for _, in := range intents {
		for _, trigger := range in.Triggers {
			if trigger != "" && strings.Contains(q, strings.ToLower(trigger)) {
				return in, true
			}
		}
	}
	return Intent{}, false
}

func (in Intent) reply(sections []string) string {
	if !in.ListSections || len(sections) == 0 {
		return in.Reply
	}

	var b strings.Builder
	b.WriteString(in.Reply)
	for _, s := range sections {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String()
}
