package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rollingriches/leadsync/internal/entity"
	"github.com/rollingriches/leadsync/internal/infra/integration/wordpress"
)

// ScoringVersion identifies the current quality-score rule set. Bump it when
// the rules change; leads scored under an older version are picked up by the
// rescan pass.
const ScoringVersion = 1

const sourceWordPress = "wordpress"

// Field aliases the various form plugins use, first match wins.
var (
	sourceIDAliases  = []string{"id", "source_id", "entry_id"}
	emailAliases     = []string{"email", "user_email", "customer_email", "mail", "your-email", "email_address", "from_email"}
	phoneAliases     = []string{"phone", "phone_number", "your-phone", "tel", "telephone"}
	firstNameAliases = []string{"first_name", "firstname", "name", "your-name", "from_name"}
	lastNameAliases  = []string{"last_name", "lastname", "surname"}
	channelAliases   = []string{"channel", "signup_channel", "form_name", "source_form"}
	referrerAliases  = []string{"referrer", "referrer_url"}
	landingAliases   = []string{"landing_page", "source_url", "page_url"}
)

var freeEmailProviders = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
}

var (
	nonDigits  = regexp.MustCompile(`\D`)
	emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Normalizer turns one untyped source record into a canonical Lead. It is a
// pure transformation: no I/O, no clock beyond the signup-time fallback, and
// the same input always yields the same derived fields.
type Normalizer struct {
	rules []*entity.BlacklistRule
}

func NewNormalizer(rules []*entity.BlacklistRule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Normalize never panics on malformed input; every field has a fallback.
// Records without an email or a source id cannot satisfy the store's
// identity and are rejected with a DomainError.
func (n *Normalizer) Normalize(raw wordpress.RawLead) (*entity.Lead, error) {
	email := strings.ToLower(strings.TrimSpace(stringField(raw, emailAliases...)))
	if email == "" {
		return nil, &DomainError{Code: "MISSING_EMAIL", Message: "record has no email field"}
	}

	sourceID := stringField(raw, sourceIDAliases...)
	if sourceID == "" {
		return nil, &DomainError{Code: "MISSING_SOURCE_ID", Message: "record has no source id"}
	}

	lead := &entity.Lead{
		ID:             uuid.New().String(),
		Email:          email,
		SourceID:       sourceID,
		SourceName:     sourceWordPress,
		FirstName:      stringField(raw, firstNameAliases...),
		LastName:       stringField(raw, lastNameAliases...),
		SignupChannel:  stringField(raw, channelAliases...),
		UTMSource:      stringField(raw, "utm_source"),
		UTMMedium:      stringField(raw, "utm_medium"),
		UTMCampaign:    stringField(raw, "utm_campaign"),
		Referrer:       stringField(raw, referrerAliases...),
		LandingPage:    stringField(raw, landingAliases...),
		SignupTime:     parseSignupTime(stringField(raw, "signup_date", "date", "submitted_at")),
		ScoringVersion: ScoringVersion,
	}

	lead.EmailValid = validEmail(email)
	if at := strings.LastIndex(email, "@"); at >= 0 {
		lead.EmailDomain = email[at+1:]
	}

	lead.PhoneRaw = stringField(raw, phoneAliases...)
	lead.PhoneDigits = nonDigits.ReplaceAllString(lead.PhoneRaw, "")
	if lead.PhoneDigits != "" {
		valid := len(lead.PhoneDigits) >= 10
		lead.PhoneValid = &valid
		// Best-effort: without a numbering-plan lookup, any valid number is
		// assumed mobile.
		lead.IsMobile = valid
	}

	for _, rule := range n.rules {
		if rule.Matches(email) {
			lead.Blacklisted = true
			lead.BlacklistReason = rule.Reason
			break
		}
	}

	lead.QualityScore = Score(lead.EmailValid, lead.PhoneValid, lead.EmailDomain, lead.SignupChannel)

	return lead, nil
}

// Score is the 0-100 lead quality heuristic. It is a pure function of its
// four inputs so re-scoring a stored lead reproduces the same value.
func Score(emailValid bool, phoneValid *bool, emailDomain, channel string) int {
	score := 50

	if emailValid {
		score += 20
	}
	if phoneValid != nil && *phoneValid {
		score += 15
	}
	if emailDomain != "" && !freeEmailProviders[strings.ToLower(emailDomain)] {
		score += 10
	}
	ch := strings.ToLower(strings.TrimSpace(channel))
	if ch != "" && ch != "test" && ch != "unknown" {
		score += 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func validEmail(email string) bool {
	if !emailShape.MatchString(email) {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

// stringField resolves the first present, non-empty alias. It looks at the
// top level first, then inside a nested "fields" map (Contact Form 7 and
// WPForms both nest their answers there).
func stringField(raw wordpress.RawLead, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}

	if nested, ok := raw["fields"].(map[string]any); ok {
		for _, key := range keys {
			if v, ok := nested[key]; ok {
				if s := stringify(v); s != "" {
					return s
				}
			}
		}
	}

	return ""
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		// JSON numbers arrive as float64; ids are integral in practice.
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

func parseSignupTime(value string) time.Time {
	if value == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
