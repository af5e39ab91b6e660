// Package extractor reads listing summaries and detail records out of portal
// markup. Extraction does no I/O and gives the same result for the same
// markup; missing optional nodes leave the field empty.
package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// Extractor turns markup into listing records.
type Extractor struct {
	sel    Selectors
	origin *url.URL
}

// Option configures the extractor.
type Option func(*Extractor)

// WithSelectors overrides the default selectors.
func WithSelectors(s Selectors) Option {
	return func(e *Extractor) {
		e.sel = s
	}
}

// WithOrigin sets the origin prepended to relative card links.
func WithOrigin(origin string) Option {
	return func(e *Extractor) {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			e.origin = u
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	origin, _ := url.Parse(DefaultOrigin)
	e := &Extractor{
		sel:    DefaultSelectors(),
		origin: origin,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Selectors returns the selectors in use.
func (e *Extractor) Selectors() Selectors {
	return e.sel
}

// ListingPage extracts one summary per card, in page order.
func (e *Extractor) ListingPage(markup string) ([]listing.Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	var out []listing.Summary
	doc.Find(e.sel.Card).Each(func(_ int, card *goquery.Selection) {
		out = append(out, e.summary(card))
	})
	return out, nil
}

func (e *Extractor) summary(card *goquery.Selection) listing.Summary {
	var s listing.Summary

	if cover := card.Find(e.sel.Cover).First(); cover.Length() > 0 {
		s.Title = strings.TrimSpace(cover.AttrOr("title", ""))
		if href := strings.TrimSpace(cover.AttrOr("href", "")); href != "" {
			s.DetailURL = e.absolute(href)
		}
	}
	if img := card.Find(e.sel.Image).First(); img.Length() > 0 {
		s.ImageURL = strings.TrimSpace(img.AttrOr("src", ""))
	}
	card.Find(e.sel.Tag).Each(func(_ int, tag *goquery.Selection) {
		s.Tags = append(s.Tags, cleanText(tag.Text()))
	})
	s.Price = firstText(card, e.sel.Price)
	if typ := card.Find(e.sel.Typology).First(); typ.Length() > 0 {
		s.Typology = joinedText(typ)
	}
	s.ShortDescription = firstText(card, e.sel.ShortDescription)
	s.Location = firstText(card, e.sel.Location)
	s.Publisher = firstText(card, e.sel.Publisher)
	s.Action = firstText(card, e.sel.Action)
	return s
}

// DetailPage extracts project info, description and units.
func (e *Extractor) DetailPage(markup string) (*listing.Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	d := &listing.Detail{ProjectInfo: listing.NewFields()}
	d.Title = firstText(doc.Selection, e.sel.DetailTitle)

	doc.Find(e.sel.ProjectInfoRow).Each(func(_ int, row *goquery.Selection) {
		cols := row.Find(e.sel.ProjectInfoCol)
		if cols.Length() < 2 {
			return
		}
		d.ProjectInfo.Set(cleanText(cols.Eq(0).Text()), cleanText(cols.Eq(1).Text()))
	})

	if desc := doc.Find(e.sel.Description).First(); desc.Length() > 0 {
		d.HasDescription = true
		d.Description = cleanText(desc.Text())
	}

	doc.Find(e.sel.Unit).Each(func(_ int, unit *goquery.Selection) {
		u := listing.NewFields()
		unit.Find(e.sel.UnitItem).Each(func(_ int, item *goquery.Selection) {
			labelSel := item.Find(e.sel.UnitLabel).First()
			if labelSel.Length() == 0 {
				return
			}
			label := cleanText(labelSel.Text())
			u.Set(label, stripLabel(cleanText(item.Text()), label))
		})
		d.Units = append(d.Units, u)
	})

	return d, nil
}

func (e *Extractor) absolute(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(e.origin.String(), "/") + href
	}
	if ref.IsAbs() {
		return ref.String()
	}
	return e.origin.ResolveReference(ref).String()
}

// stripLabel removes the leading label token from an item's full text.
func stripLabel(full, label string) string {
	if label == "" {
		return full
	}
	if strings.HasPrefix(full, label) {
		return strings.TrimSpace(strings.TrimPrefix(full, label))
	}
	return strings.TrimSpace(strings.Replace(full, label, "", 1))
}

func firstText(s *goquery.Selection, selector string) string {
	found := s.Find(selector).First()
	if found.Length() == 0 {
		return ""
	}
	return cleanText(found.Text())
}

// joinedText joins the element's text fragments with single spaces.
func joinedText(s *goquery.Selection) string {
	var parts []string
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if t := cleanText(c.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

// cleanText normalizes whitespace in text.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
