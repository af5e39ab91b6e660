package extractor

// DefaultOrigin is prepended to relative card links.
const DefaultOrigin = "https://www.fincaraiz.com.co"

// Selectors are the CSS selectors used to read listing and detail pages.
// They can be overridden from the "selectors" section of the config file.
type Selectors struct {
	// Listing page, Card is the root; the rest are relative to a card.
	Card             string `mapstructure:"card"`
	Cover            string `mapstructure:"cover"`
	Image            string `mapstructure:"image"`
	Tag              string `mapstructure:"tag"`
	Price            string `mapstructure:"price"`
	Typology         string `mapstructure:"typology"`
	ShortDescription string `mapstructure:"short_description"`
	Location         string `mapstructure:"location"`
	Publisher        string `mapstructure:"publisher"`
	Action           string `mapstructure:"action"`

	// Detail page.
	DetailTitle    string `mapstructure:"detail_title"`
	ProjectInfoRow string `mapstructure:"project_info_row"`
	ProjectInfoCol string `mapstructure:"project_info_col"`
	Description    string `mapstructure:"description"`
	Unit           string `mapstructure:"unit"`
	UnitItem       string `mapstructure:"unit_item"`
	UnitLabel      string `mapstructure:"unit_label"`
}

// DefaultSelectors returns the selectors for the portal's current markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:             "div.listingCard",
		Cover:            "a.lc-cardCover",
		Image:            "img.card-image-gallery--img",
		Tag:              "span.property-tag",
		Price:            "span.price",
		Typology:         "div.lc-typologyTag span",
		ShortDescription: "span.lc-title",
		Location:         "strong.lc-location",
		Publisher:        "div.publisher strong",
		Action:           "div.property-lead-button button",

		DetailTitle:    "h1.property-title",
		ProjectInfoRow: "div.project-info ul.ant-list-items li.ant-list-item",
		ProjectInfoCol: "div.ant-col",
		Description:    "div.property-description",
		Unit:           "div.project-units-section ul.ant-list-items li.proyect_units_list_item",
		UnitItem:       "div.unit_item",
		UnitLabel:      "strong",
	}
}
