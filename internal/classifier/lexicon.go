package classifier

// lexicon holds AFINN style valence scores in the range -5..5 for words that
// commonly carry sentiment in support mail. Inflected forms are listed
// explicitly instead of stemming.
var lexicon = map[string]int{
	// positive
	"thank": 2, "thanks": 2, "thanked": 2, "thankful": 2,
	"appreciate": 2, "appreciated": 2, "appreciation": 2,
	"great": 3, "excellent": 3, "amazing": 4, "awesome": 4, "fantastic": 4,
	"wonderful": 4, "perfect": 3, "love": 3, "loved": 3, "lovely": 3,
	"good": 3, "nice": 3, "happy": 3, "glad": 3, "pleased": 3, "delighted": 3,
	"satisfied": 2, "helpful": 2, "useful": 2, "quick": 2, "fast": 2,
	"easy": 1, "smooth": 1, "resolved": 2, "fixed": 2, "works": 1, "working": 1,
	"best": 3, "better": 2, "kind": 2, "impressed": 3, "recommend": 2,
	"enjoy": 2, "enjoyed": 2, "welcome": 2, "friendly": 2, "reliable": 2,
	"success": 2, "successful": 3, "solved": 1, "cool": 1, "fine": 2,
	"hope": 2, "hopeful": 2, "interested": 2, "excited": 3, "grateful": 3,

	// negative
	"frustrated": -2, "frustrating": -2, "frustration": -2,
	"angry": -3, "anger": -3, "annoyed": -2, "annoying": -2, "irritated": -3,
	"disappointed": -2, "disappointing": -2, "disappointment": -2,
	"terrible": -3, "horrible": -3, "awful": -3, "worst": -3, "bad": -3,
	"poor": -2, "upset": -2, "unhappy": -2, "sad": -2, "hate": -3, "hated": -3,
	"broken": -1, "broke": -1, "fail": -2, "failed": -2, "failing": -2, "failure": -2,
	"error": -2, "errors": -2, "problem": -2, "problems": -2, "issue": -1, "issues": -1,
	"bug": -2, "bugs": -2, "crash": -2, "crashed": -2, "crashes": -2,
	"slow": -2, "unable": -2, "cannot": -1, "can't": -1, "wrong": -2,
	"useless": -2, "unacceptable": -3, "ridiculous": -3, "disgusted": -3,
	"complain": -2, "complaint": -2, "complaints": -2, "refund": -1,
	"lost": -3, "losing": -3, "stuck": -2, "confused": -2, "confusing": -2,
	"worried": -3, "worry": -3, "urgent": -1, "emergency": -2, "critical": -2,
	"down": -1, "outage": -2, "blocked": -1, "delay": -1, "delayed": -1,
	"waste": -1, "wasted": -2, "scam": -2, "fraud": -4, "furious": -3,
	"outrageous": -3, "never": -1, "nothing": -1, "no": -1, "not": -1,
}
