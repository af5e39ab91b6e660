// Package listing defines the records produced by a portal crawl: card
// summaries, detail pages, their merged form and the per-source run.
package listing

import (
	"time"

	"github.com/google/uuid"
)

// Column names of an output row.
const (
	ColTitle            = "Título"
	ColDetailURL        = "URL detalle"
	ColImageURL         = "URL imagen"
	ColTags             = "Etiquetas"
	ColPrice            = "Precio listado"
	ColTypology         = "Tipología listado"
	ColShortDescription = "Descripción breve"
	ColLocation         = "Ubicación listado"
	ColPublisher        = "Publicante"
	ColAction           = "Acción disponible"
	ColDetailTitle      = "Título detalle"
	ColDescription      = "Descripción completa"
	ColUnits            = "Unidades"
	ColError            = "Error detalle"
)

// projectInfoPrefix marks project info labels that collide with a detail
// column.
const projectInfoPrefix = "Proyecto: "

// detailColumns are filled from the detail itself and never from project info.
var detailColumns = map[string]bool{
	ColDetailTitle: true,
	ColDescription: true,
	ColUnits:       true,
	ColError:       true,
}

// Summary holds the fields of one result-grid card.
type Summary struct {
	Title            string
	DetailURL        string // empty when the card has no link
	ImageURL         string
	Tags             []string
	Price            string
	Typology         string
	ShortDescription string
	Location         string
	Publisher        string
	Action           string
}

// Detail is the data extracted from one detail page. A failed resolution is
// recorded in Error and leaves every other field empty.
type Detail struct {
	Title          string
	ProjectInfo    *Fields
	Description    string
	HasDescription bool // the description block was present on the page
	Units          []*Fields
	Error          string
}

// ErrorOnly returns a detail that carries only the resolution error.
func ErrorOnly(err error) *Detail {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Detail{Error: msg}
}

// Failed reports whether resolution failed.
func (d *Detail) Failed() bool {
	return d != nil && d.Error != ""
}

// Empty reports whether nothing was extracted and no error was recorded.
func (d *Detail) Empty() bool {
	if d == nil {
		return true
	}
	return d.Error == "" && d.Title == "" && d.ProjectInfo.Len() == 0 &&
		!d.HasDescription && len(d.Units) == 0
}

// Incomplete reports a successful extraction that lacks the full
// description: the page was fetched but is probably partial or a bot wall.
func (d *Detail) Incomplete() bool {
	return d == nil || (d.Error == "" && !d.HasDescription)
}

// Enriched is a card summary merged with its detail page.
type Enriched struct {
	Summary
	Detail *Detail // nil when the card has no detail URL
	Page   int
}

// Merge pairs a summary with its resolved detail. Details are only attached
// to cards with a detail URL.
func Merge(s Summary, d *Detail, page int) Enriched {
	e := Enriched{Summary: s, Page: page}
	if s.DetailURL != "" {
		e.Detail = d
	}
	return e
}

// Row flattens the listing into ordered output columns. Project info labels
// override summary columns of the same name in place; labels that name a
// detail column are written under projectInfoPrefix instead.
func (e Enriched) Row() *Row {
	r := NewRow()
	r.Set(ColTitle, e.Title)
	r.Set(ColDetailURL, e.DetailURL)
	r.Set(ColImageURL, e.ImageURL)
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	r.Set(ColTags, tags)
	r.Set(ColPrice, e.Price)
	r.Set(ColTypology, e.Typology)
	r.Set(ColShortDescription, e.ShortDescription)
	r.Set(ColLocation, e.Location)
	r.Set(ColPublisher, e.Publisher)
	r.Set(ColAction, e.Action)

	d := e.Detail
	if d == nil {
		return r
	}
	if d.Failed() {
		r.Set(ColError, d.Error)
		return r
	}
	if d.Title != "" {
		r.Set(ColDetailTitle, d.Title)
	}
	for _, k := range d.ProjectInfo.Keys() {
		v, _ := d.ProjectInfo.Get(k)
		if detailColumns[k] {
			k = projectInfoPrefix + k
		}
		r.Set(k, v)
	}
	if d.HasDescription {
		r.Set(ColDescription, d.Description)
	}
	units := d.Units
	if units == nil {
		units = []*Fields{}
	}
	r.Set(ColUnits, units)
	return r
}

// StopReason tells why a walk ended.
type StopReason string

const (
	StopCompleted StopReason = "completed"
	StopEmptyPage StopReason = "empty_page"
	StopError     StopReason = "error"
	StopCancelled StopReason = "cancelled"
)

// Run is the ordered output of one source crawl.
type Run struct {
	ID         uuid.UUID
	Source     string
	Key        string
	Listings   []Enriched
	Pages      int // pages fetched, including the one that stopped the walk
	Stop       StopReason
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRun starts a run for source.
func NewRun(source string) *Run {
	return &Run{
		ID:        uuid.New(),
		Source:    source,
		StartedAt: time.Now(),
	}
}

// Rows flattens every listing.
func (r *Run) Rows() []*Row {
	rows := make([]*Row, 0, len(r.Listings))
	for _, l := range r.Listings {
		rows = append(rows, l.Row())
	}
	return rows
}

// Columns returns the union of row columns in first-seen order.
func Columns(rows []*Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for _, c := range row.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}
