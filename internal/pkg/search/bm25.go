// Package search is an in-process BM25 (Okapi) full-text index. Documents
// are made of weighted fields; a field's weight is how many times its
// tokens are repeated in the composite document.
package search

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

const (
	paramK1      = 1.2
	paramB       = 0.75
	paramEpsilon = 0.25
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

type Field struct {
	Text   string
	Weight int
}

// Document is identified by Name. Name itself is not scored.
type Document struct {
	Name   string
	Fields []Field
}

type Result struct {
	Name  string
	Score float64
}

// Index is safe for concurrent use. Term statistics are recomputed lazily
// on the first Search after a mutation.
type Index struct {
	mu    sync.Mutex
	terms map[string]map[string]int // document name -> term -> frequency
	sizes map[string]int
	dirty bool

	avgLength float64
	idf       map[string]float64
}

func New(documents []Document) *Index {
	idx := &Index{
		terms: make(map[string]map[string]int, len(documents)),
		sizes: make(map[string]int, len(documents)),
		idf:   map[string]float64{},
	}
	for _, d := range documents {
		idx.put(d)
	}
	idx.recompute()
	return idx
}

// Put adds or replaces a document.
func (idx *Index) Put(doc Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.put(doc)
}

func (idx *Index) Delete(name string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.terms[name]; !ok {
		return
	}
	delete(idx.terms, name)
	delete(idx.sizes, name)
	idx.dirty = true
}

func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.terms)
}

// Search ranks documents sharing at least one token with query. A limit of
// zero or less returns every hit.
func (idx *Index) Search(query string, limit int) []Result {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.dirty {
		idx.recompute()
	}

	var hits []Result
	for name := range idx.terms {
		if score := idx.score(name, queryTokens); score > 0 {
			hits = append(hits, Result{Name: name, Score: score})
		}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Name < hits[b].Name
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func (idx *Index) put(doc Document) {
	tokens := compositeTokens(doc)
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	idx.terms[doc.Name] = freq
	idx.sizes[doc.Name] = len(tokens)
	idx.dirty = true
}

func (idx *Index) recompute() {
	docFreq := make(map[string]int)
	total := 0
	for name, freq := range idx.terms {
		total += idx.sizes[name]
		for term := range freq {
			docFreq[term]++
		}
	}

	idx.avgLength = 0
	if n := len(idx.terms); n > 0 {
		idx.avgLength = float64(total) / float64(n)
	}

	n := float64(len(idx.terms))
	idx.idf = make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		v := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
		if v <= 0 {
			v = paramEpsilon
		}
		idx.idf[term] = v
	}
	idx.dirty = false
}

func (idx *Index) score(name string, queryTokens []string) float64 {
	freq := idx.terms[name]
	length := float64(idx.sizes[name])
	if idx.avgLength == 0 {
		return 0
	}

	var score float64
	for _, token := range queryTokens {
		tf := float64(freq[token])
		if tf == 0 {
			continue
		}
		numerator := tf * (paramK1 + 1)
		denominator := tf + paramK1*(1-paramB+paramB*length/idx.avgLength)
		score += idx.idf[token] * numerator / denominator
	}
	return score
}

func compositeTokens(doc Document) []string {
	var tokens []string
	for _, f := range doc.Fields {
		if f.Weight <= 0 {
			continue
		}
		fieldTokens := Tokenize(f.Text)
		for i := 0; i < f.Weight; i++ {
			tokens = append(tokens, fieldTokens...)
		}
	}
	return tokens
}

// Tokenize lowercases text and splits it into runs of letters and digits.
// Query tokens are deduplicated by the caller's scoring, not here.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
