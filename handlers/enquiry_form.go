package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ZacxDev/hotel-site/integrations"
	"github.com/ZacxDev/hotel-site/routing"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// EnquiryFormPath receives the enquiry section's form. Its first segment is
// listed in content.ReservedAliases.
const EnquiryFormPath = "/anfrage"

const enquiryStatusParam = "enquiry"

// Outcomes reported back to the enquiry section after a failed submit.
const (
	enquiryInvalid = "invalid"
	enquiryFailed  = "failed"
)

// enquiryStatus keeps only the outcomes the form handler itself sets.
func enquiryStatus(value string) string {
	switch value {
	case enquiryInvalid, enquiryFailed:
		return value
	}
	return ""
}

// EnquiryFormHandler is the same-origin form action of the enquiry section.
// The lead is submitted server side, so the browser never needs the API key.
// Success answers 303 to the thank-you page, failures 303 back to the
// variant's home with the outcome in the query and no guest data.
func (s *Site) EnquiryFormHandler(w http.ResponseWriter, r *http.Request) {
	if s.Enquiries == nil {
		s.renderStatus(w, r, http.StatusServiceUnavailable, s.Manifest.Templates.ServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxEnquiryBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	enquiry := enquiryFromForm(r.PostForm)
	if enquiry.Locale == "" {
		enquiry.Locale = s.Registry.Locale()
	}

	lead, err := s.Enquiries.Submit(r.Context(), enquiry)
	if err != nil {
		status := enquiryFailed
		var fields validation.Errors
		if errors.As(err, &fields) || goerrors.IsCategory(err, goerrors.CategoryValidation) {
			status = enquiryInvalid
		} else {
			s.logger().Error("handlers.enquiry_form.failed", "error", err)
		}
		http.Redirect(w, r, s.formReturnPath(r, enquiry.Version, status), http.StatusSeeOther)
		return
	}

	redirect, ok := s.Registry.GlobalPath(enquiry.Locale, routing.PageThankYou)
	if !ok {
		redirect, _ = s.Registry.GlobalPath(s.Registry.Locale(), routing.PageThankYou)
	}
	s.logger().Info("handlers.enquiry_form.submitted", "lead", lead.ID.String(), "version", enquiry.Version)
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// formReturnPath is the canonical home of version with the outcome appended.
func (s *Site) formReturnPath(r *http.Request, version, status string) string {
	home := "/"
	if aliases, err := s.Resolver.AliasMap(r.Context()); err == nil {
		key, _ := s.Resolver.KeyForVersion(version)
		home = s.Registry.HomePath(key, s.Resolver.Manifest(), aliases)
	}
	return home + "?" + enquiryStatusParam + "=" + status + "#anfrage"
}

func enquiryFromForm(form url.Values) integrations.Enquiry {
	field := func(name string) string { return strings.TrimSpace(form.Get(name)) }
	number := func(name string) int {
		n, _ := strconv.Atoi(field(name))
		return n
	}
	consent, _ := strconv.ParseBool(field("consent"))
	if field("consent") == "on" {
		consent = true
	}
	return integrations.Enquiry{
		Name:      field("name"),
		Email:     field("email"),
		Phone:     field("phone"),
		Arrival:   field("arrival"),
		Departure: field("departure"),
		Adults:    number("adults"),
		Children:  number("children"),
		Message:   field("message"),
		OfferID:   field("offerId"),
		Version:   field("version"),
		Locale:    field("locale"),
		Consent:   consent,
	}
}
