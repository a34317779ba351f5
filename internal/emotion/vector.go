package emotion

// Label names one of the seven emotion classes produced by the classifier.
type Label string

const (
	Anger    Label = "anger"
	Disgust  Label = "disgust"
	Fear     Label = "fear"
	Joy      Label = "joy"
	Neutral  Label = "neutral"
	Sadness  Label = "sadness"
	Surprise Label = "surprise"
)

// Labels lists every known label in storage column order.
var Labels = [...]Label{Anger, Disgust, Fear, Joy, Neutral, Sadness, Surprise}

// Score is a single {label, score} pair as returned by the emotion service.
type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Vector is the emotion distribution attached to an entry or a paragraph.
// All seven labels are always present; a label the classifier did not
// report is zero. Scores are not guaranteed to sum to 1.
type Vector struct {
	Anger    float64 `json:"anger"`
	Disgust  float64 `json:"disgust"`
	Fear     float64 `json:"fear"`
	Joy      float64 `json:"joy"`
	Neutral  float64 `json:"neutral"`
	Sadness  float64 `json:"sadness"`
	Surprise float64 `json:"surprise"`
}

// FromScores reduces a classifier output list to a Vector.
// Unrecognized labels are ignored and a nil list yields the zero vector.
func FromScores(scores []Score) Vector {
	var v Vector
	for _, s := range scores {
		if p := v.field(Label(s.Label)); p != nil {
			*p = s.Score
		}
	}
	return v
}

// Get returns the score for label, or 0 for an unknown label.
func (v Vector) Get(label Label) float64 {
	if p := v.field(label); p != nil {
		return *p
	}
	return 0
}

// Map returns the vector as a label-keyed map with all seven keys set.
func (v Vector) Map() map[Label]float64 {
	m := make(map[Label]float64, len(Labels))
	for _, l := range Labels {
		m[l] = v.Get(l)
	}
	return m
}

// Color is shorthand for ToColor(v.Map()).
func (v Vector) Color() Color {
	return ToColor(v.Map())
}

func (v *Vector) field(label Label) *float64 {
	switch label {
	case Anger:
		return &v.Anger
	case Disgust:
		return &v.Disgust
	case Fear:
		return &v.Fear
	case Joy:
		return &v.Joy
	case Neutral:
		return &v.Neutral
	case Sadness:
		return &v.Sadness
	case Surprise:
		return &v.Surprise
	}
	return nil
}
