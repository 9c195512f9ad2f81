// Package validate statically checks rule profiles before they are used.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/clausewise/internal/condition"
	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/profile"
)

type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one problem found in a profile
type Issue struct {
	ProfileID string        `json:"profile_id"`
	Field     string        `json:"field"`
	Severity  IssueSeverity `json:"severity"`
	Message   string        `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s: %s", i.ProfileID, i.Severity, i.Field, i.Message)
}

// Result is the outcome for one profile
type Result struct {
	ProfileID string  `json:"profile_id"`
	Valid     bool    `json:"valid"` // no error-severity issues
	Issues    []Issue `json:"issues"`
}

var factTypes = map[string]bool{"": true, "string": true, "number": true, "bool": true, "list": true}

// Validator checks profiles concurrently
type Validator struct {
	maxWorkers int
	conditions *condition.Evaluator
}

// NewValidator creates a new validator
func NewValidator(maxWorkers int) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &Validator{
		maxWorkers: maxWorkers,
		conditions: condition.NewEvaluator(nil),
	}
}

// Validate checks a single profile
func (v *Validator) Validate(p *model.Profile) []Issue {
	c := &collector{profileID: p.ID}

	if strings.TrimSpace(p.ID) == "" {
		c.errorf("id", "missing profile id")
	}
	if len(p.DocTypeNames) == 0 {
		c.errorf("doc_type_names", "doc_type_names cannot be empty")
	}
	for i, name := range p.DocTypeNames {
		if strings.TrimSpace(name) == "" {
			c.errorf(fmt.Sprintf("doc_type_names[%d]", i), "empty document type name")
		}
	}

	for i, kw := range p.Keywords {
		field := fmt.Sprintf("keywords[%d]", i)
		if strings.TrimSpace(kw.Term) == "" {
			c.errorf(field, "empty keyword")
		}
		if kw.Weight <= 0 {
			c.errorf(field, "weight must be positive, got %g", kw.Weight)
		}
	}
	for i, sp := range p.SectionPatterns {
		field := fmt.Sprintf("section_patterns[%d]", i)
		if _, err := regexp.Compile(sp.Pattern); err != nil {
			c.errorf(field, "pattern does not compile: %v", err)
		}
		if sp.Weight <= 0 {
			c.errorf(field, "weight must be positive, got %g", sp.Weight)
		}
	}

	v.validatePolicy(c, p.Policy)

	declared := make(map[string]bool, len(p.FactSchema))
	for i, f := range p.FactSchema {
		field := fmt.Sprintf("fact_schema[%d]", i)
		switch {
		case f.Name == "":
			c.errorf(field, "missing fact name")
		case declared[f.Name]:
			c.errorf(field, "duplicate fact name %q", f.Name)
		}
		declared[f.Name] = true
		if !factTypes[strings.ToLower(f.Type)] {
			c.warnf(field, "unknown fact type %q", f.Type)
		}
	}

	seen := make(map[string]bool, len(p.Rules))
	for i, r := range p.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if r.ID == "" {
			c.errorf(field+".id", "missing rule id")
		} else {
			if seen[r.ID] {
				c.errorf(field+".id", "duplicate rule id %q", r.ID)
			}
			seen[r.ID] = true
			field = fmt.Sprintf("rules[%s]", r.ID)
		}
		if r.Label == "" {
			c.warnf(field+".label", "missing label")
		}
		if _, err := model.ParseSeverity(string(r.Severity)); err != nil {
			c.errorf(field+".severity", "unknown severity %q", r.Severity)
		}
		if r.FailureMessage == "" {
			c.warnf(field+".failure_message", "missing failure message")
		}

		if strings.TrimSpace(r.Condition) == "" {
			c.errorf(field+".condition", "empty condition")
			continue
		}
		prog, err := v.conditions.Compile(r.Condition)
		if err != nil {
			c.errorf(field+".condition", "%v", err)
			continue
		}
		for _, name := range prog.Names() {
			if !declared[name] {
				c.errorf(field+".condition", "references undeclared fact %q", name)
			}
		}
	}

	return c.issues
}

func (v *Validator) validatePolicy(c *collector, policy model.Policy) {
	if amount := policy.LiabilityCap.MaxCapAmount; amount != nil && *amount <= 0 {
		c.errorf("policy.liability_cap.max_cap_amount", "must be positive, got %g", *amount)
	}
	if m := policy.LiabilityCap.MaxCapMultiplier; m != nil && *m <= 0 {
		c.errorf("policy.liability_cap.max_cap_multiplier", "must be positive, got %g", *m)
	}
	if limit := policy.Contract.MaxContractValue; limit != nil && *limit <= 0 {
		c.errorf("policy.contract.max_contract_value", "must be positive, got %g", *limit)
	}
	if len(policy.Jurisdiction.AllowedCountries) == 0 {
		c.warnf("policy.jurisdiction.allowed_countries", "empty allow list, every governing law will fail")
	}
}

// ValidateAll checks every profile of the store. Results keep store order.
func (v *Validator) ValidateAll(ctx context.Context, store profile.Store) ([]Result, error) {
	profiles := store.Profiles()
	results := make([]Result, len(profiles))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, p := range profiles {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, p *model.Profile) {
			defer wg.Done()
			defer func() { <-semaphore }()

			issues := v.Validate(p)
			results[idx] = Result{
				ProfileID: p.ID,
				Valid:     !HasErrors(issues),
				Issues:    issues,
			}
		}(i, p)
	}

	wg.Wait()
	return results, nil
}

// HasErrors reports whether any issue has error severity
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

type collector struct {
	profileID string
	issues    []Issue
}

func (c *collector) errorf(field, format string, args ...any) {
	c.add(SeverityError, field, format, args...)
}

func (c *collector) warnf(field, format string, args ...any) {
	c.add(SeverityWarning, field, format, args...)
}

func (c *collector) add(sev IssueSeverity, field, format string, args ...any) {
	c.issues = append(c.issues, Issue{
		ProfileID: c.profileID,
		Field:     field,
		Severity:  sev,
		Message:   fmt.Sprintf(format, args...),
	})
}
