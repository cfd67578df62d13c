package export

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/anki-boi/PDF-to-MD/internal/doctree"
)

// Note template shared by every card in a package.
const (
	ModelName     = "Chapter Basic"
	TemplateName  = "Card 1"
	QuestionFmt   = "{{Front}}"
	AnswerFmt     = "{{FrontSide}}<hr id=answer>{{Back}}"
	lineBreakHTML = "<br>"
)

// ModelFields are the note fields, in order.
var ModelFields = []string{"Front", "Back"}

// NoteModel is the note type stored in the collection.
type NoteModel struct {
	ID   int64
	Name string
}

// Note is one card's content.
type Note struct {
	GUID   string
	Fields []string
}

// Deck is a named group of notes.
type Deck struct {
	ID    int64
	Name  string
	Notes []Note
}

// DeckPackage is the in-memory form of an .apkg file.
type DeckPackage struct {
	Model NoteModel
	Decks []*Deck
}

// NoteCount returns the number of notes across all decks.
func (p *DeckPackage) NoteCount() int {
	n := 0
	for _, d := range p.Decks {
		n += len(d.Notes)
	}
	return n
}

var backPolicy = bluemonday.UGCPolicy()

// DeckOptions controls how chapters map onto decks.
type DeckOptions struct {
	SourceName string
	RootDeck   string
	Subdecks   bool
}

// BuildDeckPackage creates one note per chapter. Decks are created the first
// time a chapter maps to them, so chapters whose titles sanitize to the same
// deck name share a deck.
func BuildDeckPackage(chapters []doctree.Chunk, opts DeckOptions) *DeckPackage {
	pkg := &DeckPackage{
		Model: NoteModel{
			ID:   StableID(Stem(opts.SourceName) + "-chapter-basic-model"),
			Name: ModelName,
		},
	}

	byName := make(map[string]*Deck)
	for _, ch := range chapters {
		name := DeckName(opts.RootDeck, ch.Title, opts.Subdecks)
		deck, ok := byName[name]
		if !ok {
			deck = &Deck{ID: StableID(name), Name: name}
			byName[name] = deck
			pkg.Decks = append(pkg.Decks, deck)
		}

		fields := []string{ch.Title, BackField(ch.Text)}
		deck.Notes = append(deck.Notes, Note{
			GUID:   noteGUID(name, fields),
			Fields: fields,
		})
	}
	return pkg
}

// BackField renders chapter text as card HTML. The text is escaped so
// anything tag-like (List<String>, <T>) shows up literally on the card, and
// each line break becomes <br>.
func BackField(text string) string {
	escaped := html.EscapeString(text)
	return backPolicy.Sanitize(strings.ReplaceAll(escaped, "\n", lineBreakHTML))
}

func noteGUID(deckName string, fields []string) string {
	sum := xxhash.Sum64String(deckName + fieldSeparator + strings.Join(fields, fieldSeparator))
	return strconv.FormatUint(sum, 36)
}
