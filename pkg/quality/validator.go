package quality

// Validator applies an ordered rule set. The first violated rule decides the Result.
type Validator struct {
	rules []Rule
}

// NewValidator creates a validator over rules. With no rules it uses LetterRules.
func NewValidator(rules ...Rule) (v *Validator) {
	if len(rules) == 0 {
		rules = LetterRules()
	}
	v = &Validator{rules: rules}
	return v
}

// Rules returns the rule names in evaluation order.
func (v *Validator) Rules() (names []string) {
	for _, r := range v.rules {
		names = append(names, r.Name)
	}
	return names
}

// Validate runs every rule in order and stops at the first violation.
func (v *Validator) Validate(in Input) (result Result) {
	for _, r := range v.rules {
		ok, detail := r.Check(in)
		if !ok {
			result = Result{Reason: r.Reason, Rule: r.Name, Detail: detail}
			return result
		}
	}
	result = Result{OK: true, Reason: ReasonOK}
	return result
}

// Check validates a cover letter with the default letter rules.
func Check(text, jobTitle, company string) (result Result) {
	result = NewValidator().Validate(Input{Text: text, JobTitle: jobTitle, Company: company})
	return result
}

// IsAcceptable reports whether a cover letter passes the default letter rules.
func IsAcceptable(text, jobTitle, company string) (ok bool) {
	ok = Check(text, jobTitle, company).OK
	return ok
}
