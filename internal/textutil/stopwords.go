package textutil

var stopwords = func() map[string]struct{} {
	words := []string{
		// english
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "should", "now", "what", "which", "who", "how", "do", "does", "i", "me",
		"my", "you", "your", "we", "our",
		// spanish
		"el", "la", "los", "las", "un", "una", "unos", "unas", "de", "del", "al", "y", "o", "u", "que", "qué",
		"en", "es", "son", "se", "por", "para", "con", "sin", "su", "sus", "lo", "le", "les", "como", "cómo",
		"cual", "cuál", "cuales", "cuáles", "donde", "dónde", "cuando", "cuándo", "quien", "quién", "mi", "mis",
		"tu", "tus", "me", "te", "nos", "este", "esta", "estos", "estas", "ese", "esa", "eso", "hay", "ser",
		"puedo", "debo", "más", "muy", "pero", "si", "no", "ya",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopword reports whether a lowercased token carries no retrieval signal
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}
