package content

// Contents holds the per-section payloads of a variant. The core only relies
// on the shape; the fields exist for the page renderer.
type Contents struct {
	Hero         Hero         `json:"hero"`
	About        About        `json:"about"`
	Features     Features     `json:"features"`
	Gallery      Gallery      `json:"gallery"`
	Enquiry      Enquiry      `json:"enquiry"`
	Testimonials Testimonials `json:"testimonials"`
	FAQs         FAQs         `json:"faqs"`
	Offers       Offers       `json:"offers"`
	Rooms        Rooms        `json:"rooms"`
	Location     Location     `json:"location"`
}

// Section returns the payload of s for use as template data.
func (c *Contents) Section(s Section) any {
	switch s {
	case SectionHero:
		return c.Hero
	case SectionAbout:
		return c.About
	case SectionFeatures:
		return c.Features
	case SectionGallery:
		return c.Gallery
	case SectionEnquiry:
		return c.Enquiry
	case SectionTestimonials:
		return c.Testimonials
	case SectionFAQs:
		return c.FAQs
	case SectionOffers:
		return c.Offers
	case SectionRooms:
		return c.Rooms
	case SectionLocation:
		return c.Location
	}
	return nil
}

type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Hero struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Image    Image   `json:"image"`
	CTA      *Link   `json:"cta,omitempty"`
	Slides   []Image `json:"slides,omitempty"`
}

type About struct {
	Title string `json:"title"`
	Text  string `json:"text"` // markdown
	Image *Image `json:"image,omitempty"`
}

type Feature struct {
	Icon  string `json:"icon,omitempty"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
}

type Features struct {
	Title string    `json:"title"`
	Items []Feature `json:"items"`
}

type Gallery struct {
	Title  string  `json:"title"`
	Images []Image `json:"images"`
}

type Enquiry struct {
	Title       string `json:"title"`
	Text        string `json:"text,omitempty"`
	SubmitLabel string `json:"submitLabel,omitempty"`
	Consent     string `json:"consent,omitempty"`
}

type Testimonial struct {
	Author string `json:"author"`
	Quote  string `json:"quote"`
	Rating int    `json:"rating,omitempty"`
}

type Testimonials struct {
	Title string        `json:"title"`
	Items []Testimonial `json:"items"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"` // markdown
}

type FAQs struct {
	Title string `json:"title"`
	Items []FAQ  `json:"items"`
}

type Offers struct {
	Title     string `json:"title"`
	Text      string `json:"text,omitempty"`
	EmptyText string `json:"emptyText,omitempty"`
}

type Room struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Images      []Image `json:"images,omitempty"`
	SizeSqm     int     `json:"sizeSqm,omitempty"`
	MaxGuests   int     `json:"maxGuests,omitempty"`
}

type Rooms struct {
	Title string `json:"title"`
	Items []Room `json:"items"`
}

type Location struct {
	Title      string `json:"title"`
	Address    string `json:"address"`
	MapURL     string `json:"mapUrl,omitempty"`
	Directions string `json:"directions,omitempty"` // markdown
}
