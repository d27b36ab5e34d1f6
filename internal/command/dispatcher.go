package command

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tliron/commonlog"

	"github.com/dshills/redline/internal/doc"
)

var log = commonlog.GetLogger("redline.command")

// DefaultPrefix is the default trigger character for the command menu.
const DefaultPrefix = '/'

// Dispatcher detects trigger conditions in the live document and
// invokes registered command handlers. The menu opens when the prefix
// character starts the token under the cursor, and always closes after
// a dispatch, success or failure.
type Dispatcher struct {
	reg    *Registry
	prefix rune

	menuOpen  bool
	menuAt    doc.Offset
	menuQuery string
}

// NewDispatcher creates a dispatcher over the given registry.
// A zero prefix uses DefaultPrefix.
func NewDispatcher(reg *Registry, prefix rune) *Dispatcher {
	if prefix == 0 {
		prefix = DefaultPrefix
	}
	return &Dispatcher{reg: reg, prefix: prefix}
}

// CheckTrigger inspects the content around the cursor and opens or
// closes the menu accordingly. It returns true while the menu is open.
// The trigger fires when the token under the cursor starts with the
// prefix character.
func (d *Dispatcher) CheckTrigger(text string, cursor doc.Offset) bool {
	if cursor < 0 || cursor > doc.Offset(len(text)) {
		d.closeMenu()
		return false
	}

	start := tokenStart(text, int(cursor))
	head, size := utf8.DecodeRuneInString(text[start:])
	if size == 0 || head != d.prefix {
		d.closeMenu()
		return false
	}

	d.menuOpen = true
	d.menuAt = doc.Offset(start)
	d.menuQuery = text[start+size : cursor]
	return true
}

// MenuOpen returns true while the command menu is open.
func (d *Dispatcher) MenuOpen() bool { return d.menuOpen }

// MenuQuery returns the text typed after the prefix.
func (d *Dispatcher) MenuQuery() string { return d.menuQuery }

// MenuAt returns the offset of the trigger prefix.
func (d *Dispatcher) MenuAt() doc.Offset { return d.menuAt }

// Matching returns the registered command ids matching the current
// menu query, in sorted order.
func (d *Dispatcher) Matching() []string {
	if !d.menuOpen {
		return nil
	}
	var out []string
	for _, id := range d.reg.List() {
		if strings.HasPrefix(id, d.menuQuery) {
			out = append(out, id)
		}
	}
	return out
}

// Dispatch invokes the handler for the command id with the given
// context. The menu closes afterward regardless of outcome.
func (d *Dispatcher) Dispatch(id string, ctx *Context) error {
	defer d.closeMenu()

	h, ok := d.reg.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	if err := h(ctx); err != nil {
		log.Errorf("command %s failed: %s", id, err.Error())
		return err
	}
	return nil
}

func (d *Dispatcher) closeMenu() {
	d.menuOpen = false
	d.menuAt = 0
	d.menuQuery = ""
}

// tokenStart returns the byte offset where the token containing cursor
// begins. Tokens are delimited by whitespace.
func tokenStart(text string, cursor int) int {
	start := cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			break
		}
		start -= size
	}
	return start
}
