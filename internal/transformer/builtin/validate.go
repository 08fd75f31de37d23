package builtin

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"custdq/internal/config"
	"custdq/internal/schema"
	"custdq/internal/transformer"
	"custdq/pkg/records"
)

// Reason labels of the built-in rules. They appear verbatim in the
// rejection report.
const (
	ReasonInvalidID      = "Invalid customer_id"
	ReasonInvalidCountry = "Invalid country"
	ReasonInvalidEmail   = "invalid email"
)

// IDValid rejects rows whose customer_id could not be coerced to an integer.
type IDValid struct{}

func (IDValid) Name() string { return "id_valid" }

func (IDValid) Apply(in []records.Customer) ([]records.Customer, []transformer.Rejection) {
	return partition(in, ReasonInvalidID, func(c records.Customer) bool { return c.ID.Valid })
}

// AllowSet rejects rows whose Field is not one of Values. Null and empty
// values are not members of any set and are rejected too.
type AllowSet struct {
	Field  string
	Values []string
	Reason string
}

func (a AllowSet) Name() string { return "allow:" + a.Field }

func (a AllowSet) Apply(in []records.Customer) ([]records.Customer, []transformer.Rejection) {
	set := make(map[string]struct{}, len(a.Values))
	for _, v := range a.Values {
		set[v] = struct{}{}
	}
	return partition(in, a.Reason, func(c records.Customer) bool {
		v, _ := c.Text(a.Field)
		if !v.Valid {
			return false
		}
		_, ok := set[v.String]
		return ok
	})
}

// Pattern rejects rows whose non-empty Field does not match Re. Null and
// empty values pass; Require owns them. A match error counts as a miss.
type Pattern struct {
	Field  string
	Re     *regexp2.Regexp
	Reason string
}

func (p Pattern) Name() string { return "pattern:" + p.Field }

func (p Pattern) Apply(in []records.Customer) ([]records.Customer, []transformer.Rejection) {
	return partition(in, p.Reason, func(c records.Customer) bool {
		v, _ := c.Text(p.Field)
		if records.Missing(v) {
			return true
		}
		ok, err := p.Re.MatchString(v.String)
		return err == nil && ok
	})
}

// Rules builds the rule list in declaration order: id validity, one
// Require per non-key required field, the country allow-set, then the
// email pattern.
func Rules(s schema.Schema, cfg config.Rules) ([]transformer.Rule, error) {
	re, err := regexp2.Compile(cfg.EmailPattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile email pattern: %w", err)
	}
	re.MatchTimeout = time.Second

	rules := []transformer.Rule{IDValid{}}
	for _, f := range s.Required() {
		if f == s.Key {
			continue
		}
		rules = append(rules, Require{Field: f})
	}
	rules = append(rules,
		AllowSet{Field: records.FieldCountry, Values: cfg.AllowedCountries, Reason: ReasonInvalidCountry},
		Pattern{Field: records.FieldEmail, Re: re, Reason: ReasonInvalidEmail},
	)
	return rules, nil
}
