// Package models defines core data structures for records, annotations, and training examples.
package models

import "encoding/json"

// Record is one downloaded abstract with metadata and sentence segmentation.
// Optional fields (Preds, Sections, Categories) are present only after the
// stage that produces them; Normalize resolves their defaults once at decode
// time so consumers never nil-check them.
type Record struct {
	Created   string   `json:"created"`
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Sentences []string `json:"sentences"`
	URL       string   `json:"url"`

	// Preds holds one label->probability mapping per sentence, in sentence order.
	Preds []map[string]float64 `json:"preds,omitempty"`
	// Sections lists the curated sections this record was assigned to.
	Sections []string `json:"sections,omitempty"`
	// Categories holds manual label outcomes, when the record carries them.
	Categories map[string]int `json:"categories,omitempty"`
	// HTML is the rendered representation set by the content assembler.
	HTML string `json:"html,omitempty"`
}

// recordAlias avoids UnmarshalJSON recursion.
type recordAlias Record

// UnmarshalJSON decodes a record, accepting the legacy "cats" alias for
// "categories" and resolving optional-field defaults.
func (r *Record) UnmarshalJSON(data []byte) error {
	var aux struct {
		recordAlias
		Cats map[string]int `json:"cats"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.recordAlias)
	if r.Categories == nil {
		r.Categories = aux.Cats
	}
	r.Normalize()
	return nil
}

// Normalize resolves defaults for optional fields.
func (r *Record) Normalize() {
	if r.Categories == nil {
		r.Categories = map[string]int{}
	}
	if r.Sections == nil {
		r.Sections = []string{}
	}
}

// Day returns the created timestamp truncated to the calendar day, used as
// the archive partition key.
func (r *Record) Day() string {
	if len(r.Created) > 10 {
		return r.Created[:10]
	}
	return r.Created
}

// Clone returns a deep copy. The assembler mutates copies per section, so the
// shared record must stay untouched.
func (r *Record) Clone() *Record {
	out := *r
	out.Sentences = append([]string(nil), r.Sentences...)
	out.Sections = append([]string(nil), r.Sections...)
	if r.Preds != nil {
		out.Preds = make([]map[string]float64, len(r.Preds))
		for i, p := range r.Preds {
			cp := make(map[string]float64, len(p))
			for k, v := range p {
				cp[k] = v
			}
			out.Preds[i] = cp
		}
	}
	out.Categories = make(map[string]int, len(r.Categories))
	for k, v := range r.Categories {
		out.Categories[k] = v
	}
	return &out
}

// Answer values for annotations.
const (
	AnswerAccept = "accept"
	AnswerReject = "reject"
	AnswerIgnore = "ignore"
)

// Annotation is one (text, label, answer) judgment from an annotation session.
// Legacy files may instead carry a categories mapping directly.
type Annotation struct {
	ID         string         `json:"id,omitempty"`
	Text       string         `json:"text"`
	Label      string         `json:"label,omitempty"`
	Answer     string         `json:"answer,omitempty"`
	Categories map[string]int `json:"categories,omitempty"`
}

type annotationAlias Annotation

// UnmarshalJSON accepts the legacy "cats" alias for "categories".
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var aux struct {
		annotationAlias
		Cats map[string]int `json:"cats"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Annotation(aux.annotationAlias)
	if a.Categories == nil {
		a.Categories = aux.Cats
	}
	return nil
}

// TrainingExample is the accumulated multi-label form used to fit the classifier.
// There is exactly one TrainingExample per distinct text.
type TrainingExample struct {
	Text       string         `json:"text"`
	Categories map[string]int `json:"categories"`
}

// Meta carries display metadata for an annotation example.
type Meta struct {
	Created  string  `json:"created,omitempty"`
	URL      string  `json:"url,omitempty"`
	Title    string  `json:"title,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

// Example is the projection of a record served to annotation tooling:
// one per abstract at abstract level, one per sentence at sentence level.
type Example struct {
	Text      string   `json:"text"`
	Sentences []string `json:"sentences,omitempty"`
	Created   string   `json:"created,omitempty"`
	Meta      Meta     `json:"meta"`
}
