package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Entry names inside an .apkg archive.
const (
	CollectionName = "collection.anki2"
	MediaName      = "media"
)

// WriteDeckPackage writes pkg as an .apkg archive. The collection database
// is built in a scratch directory that is removed before returning.
func WriteDeckPackage(ctx context.Context, w io.Writer, pkg *DeckPackage, now time.Time) error {
	dir, err := os.MkdirTemp("", "pdf2md-apkg-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dbPath := filepath.Join(dir, CollectionName)
	if err := writeCollection(ctx, dbPath, pkg, now); err != nil {
		return fmt.Errorf("write collection: %w", err)
	}
	collection, err := os.ReadFile(dbPath)
	if err != nil {
		return fmt.Errorf("read collection: %w", err)
	}

	zw := zip.NewWriter(w)
	if err := writeEntry(zw, CollectionName, collection); err != nil {
		return err
	}
	// No media is ever attached, but importers expect the manifest.
	if err := writeEntry(zw, MediaName, []byte("{}")); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close apkg: %w", err)
	}
	return nil
}

const collectionConf = `{"activeDecks":[1],"addToCur":true,"collapseTime":1200,"curDeck":1,` +
	`"curModel":null,"dueCounts":true,"estTimes":true,"newSpread":0,"nextPos":1,` +
	`"sortBackwards":false,"sortType":"noteFld","timeLim":0}`

const deckConf = `{"1":{"autoplay":true,"id":1,"lapse":{"delays":[10],"leechAction":0,` +
	`"leechFails":8,"minInt":1,"mult":0},"maxTaken":60,"mod":0,"name":"Default",` +
	`"new":{"bury":true,"delays":[1,10],"initialFactor":2500,"ints":[1,4,7],"order":1,` +
	`"perDay":20,"separate":true},"replayq":true,"rev":{"bury":true,"ease4":1.3,` +
	`"fuzz":0.05,"ivlFct":1,"maxIvl":36500,"minSpace":1,"perDay":100},"timer":0,"usn":0}}`

const cardCSS = `.card {
  font-family: arial;
  font-size: 20px;
  text-align: left;
  color: black;
  background-color: white;
}
`

func modelJSON(pkg *DeckPackage, mod int64) map[string]any {
	flds := make([]map[string]any, len(ModelFields))
	for i, name := range ModelFields {
		flds[i] = map[string]any{
			"name":   name,
			"ord":    i,
			"font":   "Liberation Sans",
			"media":  []string{},
			"rtl":    false,
			"size":   20,
			"sticky": false,
		}
	}

	var did int64 = defaultDeckID
	if len(pkg.Decks) > 0 {
		did = pkg.Decks[0].ID
	}

	return map[string]any{
		"id":        pkg.Model.ID,
		"name":      pkg.Model.Name,
		"type":      0,
		"mod":       mod,
		"usn":       -1,
		"sortf":     0,
		"did":       did,
		"css":       cardCSS,
		"flds":      flds,
		"latexPre":  "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n",
		"latexPost": "\\end{document}",
		"req":       []any{[]any{0, "all", []int{0}}},
		"tags":      []string{},
		"vers":      []any{},
		"tmpls": []map[string]any{{
			"name":  TemplateName,
			"ord":   0,
			"qfmt":  QuestionFmt,
			"afmt":  AnswerFmt,
			"bqfmt": "",
			"bafmt": "",
			"did":   nil,
		}},
	}
}

func deckJSON(id int64, name string, mod int64) map[string]any {
	return map[string]any{
		"id":        id,
		"name":      name,
		"mod":       mod,
		"usn":       -1,
		"collapsed": false,
		"conf":      1,
		"desc":      "",
		"dyn":       0,
		"extendNew": 10,
		"extendRev": 50,
		"lrnToday":  []int{0, 0},
		"newToday":  []int{0, 0},
		"revToday":  []int{0, 0},
		"timeToday": []int{0, 0},
	}
}
