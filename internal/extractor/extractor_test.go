package extractor

import (
	"reflect"
	"testing"
)

const listingHTML = `<html><body>
<div class="listing-grid">
  <div class="listingCard">
    <a class="lc-cardCover" title=" Apartamento en Chapinero " href="/apartamento-en-venta/chapinero/123"></a>
    <img class="card-image-gallery--img" src=" https://img.portal/1.jpg ">
    <span class="property-tag">Nuevo</span>
    <span class="property-tag"> Destacado </span>
    <span class="price">$ 450.000.000</span>
    <div class="lc-typologyTag"><span>Apartamento<b>3 Habs.</b></span></div>
    <span class="lc-title">Apartamento   con vista</span>
    <strong class="lc-location">Chapinero, Bogotá</strong>
    <div class="publisher"><strong>Inmobiliaria Uno</strong></div>
    <div class="property-lead-button"><button>Contactar</button></div>
  </div>
  <div class="listingCard">
    <span class="price">$ 200.000.000</span>
  </div>
  <div class="listingCard">
    <a class="lc-cardCover" title="Casa" href="https://other.portal/casa/9"></a>
  </div>
</div>
</body></html>`

const detailHTML = `<html><body>
<h1 class="property-title">Apartamento en Chapinero</h1>
<div class="project-info"><ul class="ant-list-items">
  <li class="ant-list-item"><div class="ant-col">Estrato</div><div class="ant-col"> 4 </div></li>
  <li class="ant-list-item"><div class="ant-col">Área construida</div><div class="ant-col">80 m²</div></li>
  <li class="ant-list-item"><div class="ant-col">Solo etiqueta</div></li>
</ul></div>
<div class="property-description">  Amplio apartamento
  con balcón. </div>
<div class="project-units-section"><ul class="ant-list-items">
  <li class="proyect_units_list_item">
    <div class="unit_item"><strong>Área</strong> 60 m²</div>
    <div class="unit_item"><strong>Precio</strong>$ 300.000.000</div>
    <div class="unit_item">sin etiqueta</div>
  </li>
  <li class="proyect_units_list_item">
    <div class="unit_item"><strong>Área</strong>75 m²</div>
  </li>
</ul></div>
</body></html>`

// --- ListingPage Tests ---

func TestListingPage_ExtractsCards(t *testing.T) {
	e := New()

	cards, err := e.ListingPage(listingHTML)
	if err != nil {
		t.Fatalf("ListingPage() error = %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}

	c := cards[0]
	if c.Title != "Apartamento en Chapinero" {
		t.Errorf("unexpected title %q", c.Title)
	}
	if c.DetailURL != "https://www.fincaraiz.com.co/apartamento-en-venta/chapinero/123" {
		t.Errorf("unexpected detail URL %q", c.DetailURL)
	}
	if c.ImageURL != "https://img.portal/1.jpg" {
		t.Errorf("unexpected image URL %q", c.ImageURL)
	}
	if !reflect.DeepEqual(c.Tags, []string{"Nuevo", "Destacado"}) {
		t.Errorf("unexpected tags %v", c.Tags)
	}
	if c.Price != "$ 450.000.000" {
		t.Errorf("unexpected price %q", c.Price)
	}
	if c.Typology != "Apartamento 3 Habs." {
		t.Errorf("unexpected typology %q", c.Typology)
	}
	if c.ShortDescription != "Apartamento con vista" {
		t.Errorf("unexpected short description %q", c.ShortDescription)
	}
	if c.Location != "Chapinero, Bogotá" || c.Publisher != "Inmobiliaria Uno" || c.Action != "Contactar" {
		t.Errorf("unexpected location/publisher/action: %+v", c)
	}
}

func TestListingPage_MissingFieldsLeftEmpty(t *testing.T) {
	cards, err := New().ListingPage(listingHTML)
	if err != nil {
		t.Fatalf("ListingPage() error = %v", err)
	}

	c := cards[1]
	if c.DetailURL != "" || c.Title != "" || c.ImageURL != "" || c.Tags != nil {
		t.Errorf("expected empty fields for card without link, got %+v", c)
	}
	if c.Price != "$ 200.000.000" {
		t.Errorf("unexpected price %q", c.Price)
	}
}

func TestListingPage_AbsoluteHrefKept(t *testing.T) {
	cards, _ := New().ListingPage(listingHTML)
	if cards[2].DetailURL != "https://other.portal/casa/9" {
		t.Errorf("unexpected detail URL %q", cards[2].DetailURL)
	}
}

func TestListingPage_CustomOrigin(t *testing.T) {
	cards, _ := New(WithOrigin("https://portal")).ListingPage(listingHTML)
	if cards[0].DetailURL != "https://portal/apartamento-en-venta/chapinero/123" {
		t.Errorf("unexpected detail URL %q", cards[0].DetailURL)
	}
}

func TestListingPage_NoCards(t *testing.T) {
	cards, err := New().ListingPage("<html><body><p>Sin resultados</p></body></html>")
	if err != nil {
		t.Fatalf("ListingPage() error = %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("expected no cards, got %d", len(cards))
	}
}

// --- DetailPage Tests ---

func TestDetailPage_ExtractsAll(t *testing.T) {
	d, err := New().DetailPage(detailHTML)
	if err != nil {
		t.Fatalf("DetailPage() error = %v", err)
	}

	if d.Title != "Apartamento en Chapinero" {
		t.Errorf("unexpected title %q", d.Title)
	}
	if got := d.ProjectInfo.Keys(); !reflect.DeepEqual(got, []string{"Estrato", "Área construida"}) {
		t.Errorf("unexpected project info keys %v", got)
	}
	if v, _ := d.ProjectInfo.Get("Estrato"); v != "4" {
		t.Errorf("unexpected Estrato %q", v)
	}
	if !d.HasDescription || d.Description != "Amplio apartamento con balcón." {
		t.Errorf("unexpected description %q (present=%v)", d.Description, d.HasDescription)
	}
	if len(d.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(d.Units))
	}
	if v, _ := d.Units[0].Get("Área"); v != "60 m²" {
		t.Errorf("unexpected unit area %q", v)
	}
	if v, _ := d.Units[0].Get("Precio"); v != "$ 300.000.000" {
		t.Errorf("unexpected unit price %q", v)
	}
	if d.Units[0].Len() != 2 {
		t.Errorf("items without label should be skipped, got %v", d.Units[0].Keys())
	}
	if d.Incomplete() {
		t.Error("detail with description should not be incomplete")
	}
}

func TestDetailPage_MissingBlocks(t *testing.T) {
	d, err := New().DetailPage("<html><body><h1 class=\"property-title\">X</h1></body></html>")
	if err != nil {
		t.Fatalf("DetailPage() error = %v", err)
	}
	if d.ProjectInfo.Len() != 0 || len(d.Units) != 0 || d.HasDescription {
		t.Errorf("expected empty detail, got %+v", d)
	}
	if !d.Incomplete() {
		t.Error("detail without description should be incomplete")
	}
}

func TestDetailPage_Deterministic(t *testing.T) {
	e := New()
	a, _ := e.DetailPage(detailHTML)
	b, _ := e.DetailPage(detailHTML)

	if !reflect.DeepEqual(a, b) {
		t.Error("extracting identical markup twice should give identical details")
	}
}

func TestStripLabel(t *testing.T) {
	tests := []struct {
		full, label, want string
	}{
		{"Área 60 m²", "Área", "60 m²"},
		{"60 m² Área", "Área", "60 m²"},
		{"Área", "Área", ""},
		{"sin etiqueta", "", "sin etiqueta"},
	}
	for _, tt := range tests {
		if got := stripLabel(tt.full, tt.label); got != tt.want {
			t.Errorf("stripLabel(%q, %q) = %q, want %q", tt.full, tt.label, got, tt.want)
		}
	}
}
