package shs

// Dimension pairs a positively worded question (A) with its negatively
// worded counterpart (B).
type Dimension struct {
	Key       string     // canonical English name, also the localization key
	Slug      string     // short machine name used in CSV headers and metrics
	QuestionA QuestionID // positive statement
	QuestionB QuestionID // negative statement
}

// NumDimensions is the number of question pairs.
const NumDimensions = 5

var dimensionTable = [NumDimensions]Dimension{
	{Key: "Factual Accuracy", Slug: "factual_accuracy", QuestionA: "q1", QuestionB: "q2"},
	{Key: "Source Reliability", Slug: "source_reliability", QuestionA: "q3", QuestionB: "q4"},
	{Key: "Logical Coherence", Slug: "logical_coherence", QuestionA: "q5", QuestionB: "q6"},
	{Key: "Deceptiveness", Slug: "deceptiveness", QuestionA: "q7", QuestionB: "q8"},
	{Key: "Responsiveness to Guidance", Slug: "responsiveness", QuestionA: "q9", QuestionB: "q10"},
}

// Dimensions returns the dimension table in its fixed order.
func Dimensions() []Dimension {
	dims := dimensionTable
	return dims[:]
}

// DimensionByKey looks up a dimension by its Key or Slug.
func DimensionByKey(key string) (Dimension, bool) {
	for _, d := range dimensionTable {
		if d.Key == key || d.Slug == key {
			return d, true
		}
	}
	return Dimension{}, false
}
