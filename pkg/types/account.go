package types

// Account is a credentialed tenant on the deployment platform. Each account
// owns zero or more deployment targets per template.
type Account struct {
	// Display label for the account
	Alias string `json:"alias" yaml:"alias"`

	// Platform account identifier
	AccountID string `json:"accountId" yaml:"accountId"`

	// Bearer credential for the platform API
	APIToken string `json:"apiToken" yaml:"apiToken"`

	// Target names to deploy to, keyed by template ID; order is preserved
	Workers map[string][]string `json:"workers" yaml:"workers"`
}

// Targets returns the account's target list for the given template.
func (a *Account) Targets(templateID string) []string {
	if a.Workers == nil {
		return nil
	}
	return a.Workers[templateID]
}
