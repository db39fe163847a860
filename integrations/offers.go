package integrations

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZacxDev/hotel-site/content"
	"github.com/ZacxDev/hotel-site/logging"
	"golang.org/x/text/cases"
)

// Offer is a bookable package shown in the offers section.
type Offer struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ValidFrom   time.Time `json:"validFrom"`
	ValidTo     time.Time `json:"validTo"`
	PriceFrom   float64   `json:"priceFrom,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	BookingURL  string    `json:"bookingUrl,omitempty"`
}

// OfferSource lists the offers currently published by a channel manager or
// booking engine.
type OfferSource interface {
	Offers(ctx context.Context, locale string) ([]Offer, error)
}

// FilterOffers applies a variant's offer filters. Title terms match case
// insensitively; an offer is dropped when its validity window lies entirely
// outside the configured dates.
func FilterOffers(offers []Offer, f *content.Filters) []Offer {
	if f == nil {
		return offers
	}
	after, hasAfter := f.ValidAfterDate()
	before, hasBefore := f.ValidBeforeDate()
	fold := cases.Fold()

	out := make([]Offer, 0, len(offers))
	for _, o := range offers {
		title := fold.String(o.Title)
		if len(f.TitleContains) > 0 && !containsAny(title, f.TitleContains, fold) {
			continue
		}
		if containsAny(title, f.TitleExcludes, fold) {
			continue
		}
		if hasAfter && !o.ValidTo.IsZero() && o.ValidTo.Before(after) {
			continue
		}
		if hasBefore && !o.ValidFrom.IsZero() && o.ValidFrom.After(before) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func containsAny(title string, terms []string, fold cases.Caser) bool {
	for _, term := range terms {
		if term = strings.TrimSpace(term); term == "" {
			continue
		}
		if strings.Contains(title, fold.String(term)) {
			return true
		}
	}
	return false
}

// EasyChannel reads offers from the EasyChannel channel manager API.
type EasyChannel struct {
	client   *Client
	endpoint string
	apiKey   string
	logger   logging.Logger
}

func NewEasyChannel(client *Client, endpoint, apiKey string, logger logging.Logger) *EasyChannel {
	return &EasyChannel{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		logger:   logging.OrNoOp(logger),
	}
}

type easyChannelOffer struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Teaser      string  `json:"teaser"`
	ArrivalFrom string  `json:"arrivalFrom"`
	ArrivalTo   string  `json:"arrivalTo"`
	Price       float64 `json:"priceFrom"`
	Currency    string  `json:"currency"`
	Image       string  `json:"image"`
	BookingLink string  `json:"bookingLink"`
}

type easyChannelResponse struct {
	Offers []easyChannelOffer `json:"offers"`
}

func (e *EasyChannel) Offers(ctx context.Context, locale string) ([]Offer, error) {
	query := url.Values{"lang": {locale}}
	var resp easyChannelResponse
	err := e.client.Do(ctx, Request{
		Method: http.MethodGet,
		URL:    e.endpoint + "/offers?" + query.Encode(),
		Header: http.Header{"X-Api-Key": {e.apiKey}},
		Out:    &resp,
	})
	if err != nil {
		return nil, err
	}

	offers := make([]Offer, 0, len(resp.Offers))
	for _, o := range resp.Offers {
		offer := Offer{
			ID:          o.Code,
			Title:       o.Name,
			Description: o.Teaser,
			PriceFrom:   o.Price,
			Currency:    o.Currency,
			ImageURL:    o.Image,
			BookingURL:  o.BookingLink,
		}
		offer.ValidFrom = parseDay(o.ArrivalFrom)
		offer.ValidTo = parseDay(o.ArrivalTo)
		offers = append(offers, offer)
	}
	e.logger.Debug("integrations.easychannel.offers", "count", len(offers), "locale", locale)
	return offers, nil
}

func parseDay(value string) time.Time {
	t, err := time.Parse(content.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}

// StaticOffers serves a fixed list; used when no channel manager is
// configured.
type StaticOffers []Offer

func (s StaticOffers) Offers(context.Context, string) ([]Offer, error) {
	out := make([]Offer, len(s))
	copy(out, s)
	return out, nil
}
