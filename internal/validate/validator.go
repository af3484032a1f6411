package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/casehq/triage/internal/model"
	"github.com/casehq/triage/internal/util"
)

const (
	defaultMaxSubjectLen     = 200
	defaultMaxDescriptionLen = 10000
)

// requiredFields must be present and non-empty when a full record is
// expected (import / create).
var requiredFields = []string{
	"customer_id",
	"customer_email",
	"customer_name",
	"subject",
	"description",
}

// Validator checks normalized field-mappings against the record rules.
type Validator struct {
	maxSubjectLen     int
	maxDescriptionLen int
}

// NewValidator creates a validator. Non-positive limits fall back to the
// defaults (200-char subject, 10000-char description).
func NewValidator(maxSubjectLen, maxDescriptionLen int) *Validator {
	if maxSubjectLen <= 0 {
		maxSubjectLen = defaultMaxSubjectLen
	}
	if maxDescriptionLen <= 0 {
		maxDescriptionLen = defaultMaxDescriptionLen
	}
	return &Validator{
		maxSubjectLen:     maxSubjectLen,
		maxDescriptionLen: maxDescriptionLen,
	}
}

// Validate checks one field-mapping and returns every field error found,
// never just the first. With requireAll the five core fields must be
// present and non-empty; without it only the fields present in the
// mapping are checked (patch validation).
//
// Length limits apply to the text after markup stripping, so a subject
// padded with tags does not slip past the cap.
func (v *Validator) Validate(record map[string]string, requireAll bool) []model.FieldError {
	var errs []model.FieldError

	for _, field := range requiredFields {
		value, present := record[field]
		empty := strings.TrimSpace(value) == ""
		if requireAll && (!present || empty) {
			errs = append(errs, model.FieldError{Field: field, Message: "is required"})
		} else if !requireAll && present && empty {
			errs = append(errs, model.FieldError{Field: field, Message: "cannot be empty"})
		}
	}

	if email, ok := nonEmpty(record, "customer_email"); ok {
		if _, err := mail.ParseAddress(email); err != nil {
			errs = append(errs, model.FieldError{Field: "customer_email", Message: "must be a valid email address"})
		}
	}

	if subject, ok := nonEmpty(record, "subject"); ok {
		if utf8.RuneCountInString(util.CleanText(subject)) > v.maxSubjectLen {
			errs = append(errs, model.FieldError{
				Field:   "subject",
				Message: fmt.Sprintf("must be at most %d characters", v.maxSubjectLen),
			})
		}
	}

	if description, ok := nonEmpty(record, "description"); ok {
		if utf8.RuneCountInString(util.CleanText(description)) > v.maxDescriptionLen {
			errs = append(errs, model.FieldError{
				Field:   "description",
				Message: fmt.Sprintf("must be at most %d characters", v.maxDescriptionLen),
			})
		}
	}

	if status, ok := nonEmpty(record, "status"); ok {
		if _, err := model.ParseStatus(status); err != nil {
			errs = append(errs, model.FieldError{
				Field:   "status",
				Message: fmt.Sprintf("must be one of %s", joinStatuses()),
			})
		}
	}

	if category, ok := nonEmpty(record, "category"); ok {
		if _, err := model.ParseCategory(category); err != nil {
			errs = append(errs, model.FieldError{
				Field:   "category",
				Message: fmt.Sprintf("must be one of %s", joinCategories()),
			})
		}
	}

	if priority, ok := nonEmpty(record, "priority"); ok {
		if _, err := model.ParsePriority(priority); err != nil {
			errs = append(errs, model.FieldError{
				Field:   "priority",
				Message: fmt.Sprintf("must be one of %s", joinPriorities()),
			})
		}
	}

	return errs
}

// BuildTicket converts a validated field-mapping into a ticket draft.
// Subject and description are stored with markup stripped, status
// defaults to open, and "metadata." prefixed keys populate the metadata
// map. ID and timestamps are left for the store to assign.
func BuildTicket(record map[string]string) model.Ticket {
	ticket := model.Ticket{
		CustomerID:    strings.TrimSpace(record["customer_id"]),
		CustomerEmail: strings.TrimSpace(record["customer_email"]),
		CustomerName:  strings.TrimSpace(record["customer_name"]),
		Subject:       util.CleanText(record["subject"]),
		Description:   util.CleanText(record["description"]),
		Status:        model.StatusOpen,
	}

	if status, ok := nonEmpty(record, "status"); ok {
		if parsed, err := model.ParseStatus(status); err == nil {
			ticket.Status = parsed
		}
	}

	for key, value := range record {
		if name, ok := strings.CutPrefix(key, "metadata."); ok && name != "" {
			if ticket.Metadata == nil {
				ticket.Metadata = make(map[string]string)
			}
			ticket.Metadata[name] = strings.TrimSpace(value)
		}
	}

	return ticket
}

func nonEmpty(record map[string]string, field string) (string, bool) {
	value, present := record[field]
	if !present {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func joinStatuses() string {
	parts := make([]string, 0, len(model.Statuses()))
	for _, s := range model.Statuses() {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}

func joinCategories() string {
	parts := make([]string, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ", ")
}

func joinPriorities() string {
	parts := make([]string, 0, len(model.Priorities()))
	for _, p := range model.Priorities() {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ", ")
}
