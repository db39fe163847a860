package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ZacxDev/hotel-site/integrations"
	"github.com/ZacxDev/hotel-site/routing"
	"github.com/ZacxDev/hotel-site/variants"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

const (
	APIKeyHeader    = "X-Api-Key"
	maxEnquiryBytes = 64 << 10
)

type apiError struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type offersResponse struct {
	Version string               `json:"version"`
	Offers  []integrations.Offer `json:"offers"`
}

// OffersHandler lists the offers of the requested variant, narrowed by the
// variant's filters.
func (s *Site) OffersHandler(w http.ResponseWriter, r *http.Request) {
	version := r.URL.Query().Get("version")
	if version == "" {
		version = variants.DefaultVersion
	}

	pc, err := s.Resolver.GetContents(r.Context(), version)
	if err != nil {
		s.logger().Error("handlers.offers.contents", "version", version, "error", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "content unavailable"})
		return
	}

	var offers []integrations.Offer
	if s.Offers != nil {
		offers, err = s.Offers.Offers(r.Context(), s.Registry.Locale())
		if err != nil {
			s.logger().Error("handlers.offers.upstream", "error", err)
			writeJSON(w, http.StatusBadGateway, apiError{Error: "offers unavailable"})
			return
		}
	}

	filtered := integrations.FilterOffers(offers, pc.Filters)
	if filtered == nil {
		filtered = []integrations.Offer{}
	}
	writeJSON(w, http.StatusOK, offersResponse{
		Version: s.Resolver.VersionForKey(pc.Key),
		Offers:  filtered,
	})
}

type enquiryResponse struct {
	ID       string `json:"id"`
	Redirect string `json:"redirect"`
}

// EnquiryHandler accepts an enquiry from the site's own frontend. The
// request must carry the configured API key.
func (s *Site) EnquiryHandler(w http.ResponseWriter, r *http.Request) {
	if s.APIKey == "" || s.Enquiries == nil {
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "enquiries are disabled"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(APIKeyHeader)), []byte(s.APIKey)) != 1 {
		writeJSON(w, http.StatusUnauthorized, apiError{Error: "invalid api key"})
		return
	}

	var enquiry integrations.Enquiry
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEnquiryBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&enquiry); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "malformed enquiry"})
		return
	}
	if enquiry.Locale == "" {
		enquiry.Locale = s.Registry.Locale()
	}

	lead, err := s.Enquiries.Submit(r.Context(), enquiry)
	if err != nil {
		var fields validation.Errors
		switch {
		case errors.As(err, &fields):
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "invalid enquiry", Fields: fields})
		case goerrors.IsCategory(err, goerrors.CategoryValidation):
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "invalid enquiry"})
		default:
			writeJSON(w, http.StatusBadGateway, apiError{Error: "enquiry could not be submitted"})
		}
		return
	}

	redirect, ok := s.Registry.GlobalPath(enquiry.Locale, routing.PageThankYou)
	if !ok {
		redirect, _ = s.Registry.GlobalPath(s.Registry.Locale(), routing.PageThankYou)
	}
	writeJSON(w, http.StatusCreated, enquiryResponse{ID: lead.ID.String(), Redirect: redirect})
}
