package content

import "strings"

// Section names a block of the page composition.
type Section string

const (
	SectionHero         Section = "hero"
	SectionAbout        Section = "about"
	SectionFeatures     Section = "features"
	SectionGallery      Section = "gallery"
	SectionEnquiry      Section = "enquiry"
	SectionTestimonials Section = "testimonials"
	SectionFAQs         Section = "faqs"
	SectionOffers       Section = "offers"
	SectionRooms        Section = "rooms"
	SectionLocation     Section = "location"
)

// Sections lists the closed set of section names in their default order.
var Sections = []Section{
	SectionHero,
	SectionAbout,
	SectionFeatures,
	SectionGallery,
	SectionEnquiry,
	SectionTestimonials,
	SectionFAQs,
	SectionOffers,
	SectionRooms,
	SectionLocation,
}

// ParseSection reports whether name is one of the known sections.
func ParseSection(name string) (Section, bool) {
	name = strings.TrimSpace(name)
	for _, s := range Sections {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

func (s Section) String() string { return string(s) }
