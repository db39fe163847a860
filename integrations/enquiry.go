package integrations

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ZacxDev/hotel-site/content"
	"github.com/ZacxDev/hotel-site/logging"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Enquiry is a booking request submitted from the enquiry section.
type Enquiry struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Arrival   string `json:"arrival"`
	Departure string `json:"departure"`
	Adults    int    `json:"adults"`
	Children  int    `json:"children,omitempty"`
	Message   string `json:"message,omitempty"`
	OfferID   string `json:"offerId,omitempty"`
	Version   string `json:"version,omitempty"`
	Locale    string `json:"locale,omitempty"`
	Consent   bool   `json:"consent"`
}

func (e Enquiry) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&e.Email, validation.Required, is.EmailFormat),
		validation.Field(&e.Phone, validation.Length(0, 40)),
		validation.Field(&e.Arrival, validation.Required, validation.Date(content.DateLayout)),
		validation.Field(&e.Departure, validation.Required, validation.Date(content.DateLayout)),
		validation.Field(&e.Adults, validation.Required, validation.Min(1), validation.Max(20)),
		validation.Field(&e.Children, validation.Min(0), validation.Max(20)),
		validation.Field(&e.Message, validation.Length(0, 4000)),
		validation.Field(&e.Consent, validation.Required.Error("consent is required")),
	)
	if err != nil {
		return err
	}

	arrival, _ := time.Parse(content.DateLayout, e.Arrival)
	departure, _ := time.Parse(content.DateLayout, e.Departure)
	if !departure.After(arrival) {
		return validation.Errors{
			"departure": validation.NewError("enquiry.departure_before_arrival", "must be after arrival"),
		}
	}
	return nil
}

// Lead is an enquiry as stored in the CRM.
type Lead struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Source    string    `json:"source"`
	Enquiry
}

// LeadSink accepts validated leads.
type LeadSink interface {
	SubmitLead(ctx context.Context, lead Lead) error
}

// Mailer sends transactional mail.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a templated transactional mail.
type Message struct {
	To       string         `json:"to"`
	From     string         `json:"from,omitempty"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Locale   string         `json:"locale,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// CRM posts leads to the CRM's lead endpoint.
type CRM struct {
	client   *Client
	endpoint string
	token    string
}

func NewCRM(client *Client, endpoint, token string) *CRM {
	return &CRM{client: client, endpoint: strings.TrimRight(endpoint, "/"), token: token}
}

func (c *CRM) SubmitLead(ctx context.Context, lead Lead) error {
	return c.client.Do(ctx, Request{
		Method: http.MethodPost,
		URL:    c.endpoint + "/leads",
		Header: http.Header{"Authorization": {"Bearer " + c.token}},
		Body:   lead,
	})
}

// MailAPI sends mail through a transactional mail HTTP API.
type MailAPI struct {
	client   *Client
	endpoint string
	token    string
	from     string
}

func NewMailAPI(client *Client, endpoint, token, from string) *MailAPI {
	return &MailAPI{client: client, endpoint: strings.TrimRight(endpoint, "/"), token: token, from: from}
}

func (m *MailAPI) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.from
	}
	return m.client.Do(ctx, Request{
		Method: http.MethodPost,
		URL:    m.endpoint + "/send",
		Header: http.Header{"Authorization": {"Bearer " + m.token}},
		Body:   msg,
	})
}

// EnquiryService turns enquiries into CRM leads and confirms them by mail.
type EnquiryService struct {
	leads   LeadSink
	mailer  Mailer
	subject string
	logger  logging.Logger
	now     func() time.Time
}

func NewEnquiryService(leads LeadSink, mailer Mailer, subject string, logger logging.Logger) *EnquiryService {
	return &EnquiryService{
		leads:   leads,
		mailer:  mailer,
		subject: subject,
		logger:  logging.OrNoOp(logger),
		now:     time.Now,
	}
}

// Submit validates the enquiry and stores it as a lead. A failed
// confirmation mail is logged; the lead has already been accepted by then.
func (s *EnquiryService) Submit(ctx context.Context, enquiry Enquiry) (*Lead, error) {
	enquiry.Name = strings.TrimSpace(enquiry.Name)
	enquiry.Email = strings.TrimSpace(enquiry.Email)
	if err := enquiry.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid enquiry")
	}

	lead := Lead{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
		Source:    "website",
		Enquiry:   enquiry,
	}
	if err := s.leads.SubmitLead(ctx, lead); err != nil {
		s.logger.Error("integrations.lead.failed", "lead", lead.ID, "error", err)
		return nil, err
	}

	if s.mailer != nil {
		err := s.mailer.Send(ctx, Message{
			To:       lead.Email,
			Subject:  s.subject,
			Template: "enquiry-confirmation",
			Locale:   lead.Locale,
			Data: map[string]any{
				"name":      lead.Name,
				"arrival":   lead.Arrival,
				"departure": lead.Departure,
				"reference": lead.ID.String(),
			},
		})
		if err != nil {
			s.logger.Warn("integrations.mail.failed", "lead", lead.ID, "error", err)
		}
	}

	s.logger.Info("integrations.lead.submitted", "lead", lead.ID, "version", lead.Version)
	return &lead, nil
}
