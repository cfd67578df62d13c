package export

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	_ "modernc.org/sqlite"

	"github.com/anki-boi/PDF-to-MD/internal/apperr"
)

const fieldSeparator = "\x1f"

// collectionSchema is the Anki 2.1 legacy (version 11) collection layout.
const collectionSchema = `
CREATE TABLE col (
    id integer primary key,
    crt integer not null,
    mod integer not null,
    scm integer not null,
    ver integer not null,
    dty integer not null,
    usn integer not null,
    ls integer not null,
    conf text not null,
    models text not null,
    decks text not null,
    dconf text not null,
    tags text not null
);
CREATE TABLE notes (
    id integer primary key,
    guid text not null,
    mid integer not null,
    mod integer not null,
    usn integer not null,
    tags text not null,
    flds text not null,
    sfld integer not null,
    csum integer not null,
    flags integer not null,
    data text not null
);
CREATE TABLE cards (
    id integer primary key,
    nid integer not null,
    did integer not null,
    ord integer not null,
    mod integer not null,
    usn integer not null,
    type integer not null,
    queue integer not null,
    due integer not null,
    ivl integer not null,
    factor integer not null,
    reps integer not null,
    lapses integer not null,
    left integer not null,
    odue integer not null,
    odid integer not null,
    flags integer not null,
    data text not null
);
CREATE TABLE revlog (
    id integer primary key,
    cid integer not null,
    usn integer not null,
    ease integer not null,
    ivl integer not null,
    lastIvl integer not null,
    factor integer not null,
    time integer not null,
    type integer not null
);
CREATE TABLE graves (
    usn integer not null,
    oid integer not null,
    type integer not null
);
CREATE INDEX ix_notes_usn on notes (usn);
CREATE INDEX ix_cards_usn on cards (usn);
CREATE INDEX ix_revlog_usn on revlog (usn);
CREATE INDEX ix_cards_nid on cards (nid);
CREATE INDEX ix_cards_sched on cards (did, queue, due);
CREATE INDEX ix_revlog_cid on revlog (cid);
CREATE INDEX ix_notes_csum on notes (csum);
`

const defaultDeckID = 1

// writeCollection creates an Anki collection database at path holding pkg.
// now seeds note and card ids and every modification timestamp.
func writeCollection(ctx context.Context, path string, pkg *DeckPackage, now time.Time) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &apperr.DependencyError{Capability: "deck export", Hint: "sqlite driver", Err: err}
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, collectionSchema); err != nil {
		return fmt.Errorf("create collection schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin collection tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertCol(ctx, tx, pkg, now); err != nil {
		return err
	}
	if err := insertNotes(ctx, tx, pkg, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit collection: %w", err)
	}
	return nil
}

func insertCol(ctx context.Context, tx *sql.Tx, pkg *DeckPackage, now time.Time) error {
	sec := now.Unix()
	models, err := json.Marshal(map[string]any{
		strconv.FormatInt(pkg.Model.ID, 10): modelJSON(pkg, sec),
	})
	if err != nil {
		return fmt.Errorf("marshal models: %w", err)
	}

	decks := map[string]any{
		strconv.Itoa(defaultDeckID): deckJSON(defaultDeckID, "Default", sec),
	}
	for _, d := range pkg.Decks {
		decks[strconv.FormatInt(d.ID, 10)] = deckJSON(d.ID, d.Name, sec)
	}
	decksRaw, err := json.Marshal(decks)
	if err != nil {
		return fmt.Errorf("marshal decks: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO col VALUES (null, ?, ?, ?, 11, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		sec, now.UnixMilli(), now.UnixMilli(),
		collectionConf, string(models), string(decksRaw), deckConf,
	)
	if err != nil {
		return fmt.Errorf("insert col: %w", err)
	}
	return nil
}

func insertNotes(ctx context.Context, tx *sql.Tx, pkg *DeckPackage, now time.Time) error {
	noteStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO notes VALUES (?, ?, ?, ?, -1, '', ?, ?, ?, 0, '')`)
	if err != nil {
		return fmt.Errorf("prepare notes: %w", err)
	}
	defer noteStmt.Close()

	cardStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cards VALUES (?, ?, ?, 0, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return fmt.Errorf("prepare cards: %w", err)
	}
	defer cardStmt.Close()

	sec := now.Unix()
	nextID := now.UnixMilli()
	due := 0
	for _, d := range pkg.Decks {
		for _, n := range d.Notes {
			sortField := stripHTML(n.Fields[0])
			noteID := nextID
			nextID++
			if _, err := noteStmt.ExecContext(ctx,
				noteID, n.GUID, pkg.Model.ID, sec,
				strings.Join(n.Fields, fieldSeparator), sortField, fieldChecksum(sortField),
			); err != nil {
				return fmt.Errorf("insert note %s: %w", n.GUID, err)
			}

			cardID := nextID
			nextID++
			due++
			if _, err := cardStmt.ExecContext(ctx, cardID, noteID, d.ID, sec, due); err != nil {
				return fmt.Errorf("insert card for note %s: %w", n.GUID, err)
			}
		}
	}
	return nil
}

// fieldChecksum is the first 32 bits of the SHA-1 of the sort field, which
// is how Anki detects duplicate notes.
func fieldChecksum(sortField string) int64 {
	sum := sha1.Sum([]byte(sortField))
	return int64(binary.BigEndian.Uint32(sum[:4]))
}

// stripHTML returns the text content of an HTML fragment.
func stripHTML(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
