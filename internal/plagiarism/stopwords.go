package plagiarism

// englishStopWords are dropped before vectorizing text for TF-IDF
var englishStopWords = toSet(
	"a", "about", "above", "after", "again", "against", "all", "almost", "alone", "along",
	"already", "also", "although", "always", "am", "among", "an", "and", "another", "any",
	"anyone", "anything", "are", "around", "as", "at", "be", "became", "because", "become",
	"been", "before", "being", "below", "between", "both", "but", "by", "can", "cannot",
	"could", "did", "do", "does", "doing", "done", "down", "during", "each", "either",
	"else", "enough", "etc", "even", "ever", "every", "few", "for", "from", "further",
	"had", "has", "have", "having", "he", "her", "here", "hers", "herself", "him",
	"himself", "his", "how", "however", "i", "if", "in", "into", "is", "it",
	"its", "itself", "just", "least", "less", "many", "may", "me", "might", "more",
	"most", "much", "must", "my", "myself", "neither", "never", "nevertheless", "no", "nor",
	"not", "nothing", "now", "of", "off", "often", "on", "once", "one", "only",
	"onto", "or", "other", "others", "otherwise", "our", "ours", "ourselves", "out", "over",
	"own", "per", "perhaps", "please", "rather", "same", "several", "she", "should", "since",
	"so", "some", "such", "than", "that", "the", "their", "theirs", "them", "themselves",
	"then", "there", "therefore", "these", "they", "this", "those", "though", "through", "thus",
	"to", "together", "too", "toward", "towards", "under", "until", "up", "upon", "us",
	"very", "via", "was", "we", "well", "were", "what", "whatever", "when", "where",
	"whether", "which", "while", "who", "whoever", "whole", "whom", "whose", "why", "will",
	"with", "within", "without", "would", "yet", "you", "your", "yours", "yourself", "yourselves",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
