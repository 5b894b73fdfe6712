package types

// ProjectTemplate describes an upstream deployable artifact: where its source
// lives, where to poll for new revisions, and which variables its runtime
// recognizes. Templates are immutable after process start.
type ProjectTemplate struct {
	// Unique identifier for the template
	ID string `json:"id" yaml:"id"`

	// Human-readable name for the template
	Name string `json:"name" yaml:"name"`

	// URL of the raw deployable source artifact
	ScriptURL string `json:"scriptUrl" yaml:"scriptUrl"`

	// Revision API endpoint returning the latest commit descriptor
	CommitAPIURL string `json:"commitApiUrl" yaml:"commitApiUrl"`

	// Ordered list of recognized variable keys
	DefaultVars []string `json:"defaultVars" yaml:"defaultVars"`

	// Key of the designated secret variable rotated by the circuit breaker
	SecretVar string `json:"secretVar" yaml:"secretVar"`

	// Whether the artifact expects a browser-style global and needs a
	// polyfill prepended before upload
	NeedsGlobalPolyfill bool `json:"needsGlobalPolyfill" yaml:"needsGlobalPolyfill"`
}

// BuiltinTemplates returns the two supported project templates in evaluation
// order.
func BuiltinTemplates() []ProjectTemplate {
	return []ProjectTemplate{
		{
			ID:           "cmliu",
			Name:         "CMliu - EdgeTunnel",
			ScriptURL:    "https://raw.githubusercontent.com/cmliu/edgetunnel/beta2.0/_worker.js",
			CommitAPIURL: "https://api.github.com/repos/cmliu/edgetunnel/commits/beta2.0",
			DefaultVars:  []string{"UUID", "PROXYIP", "PATH", "URL", "KEY", "ADMIN"},
			SecretVar:    "UUID",
		},
		{
			ID:           "joey",
			Name:         "Joey - CFNew",
			ScriptURL:    "https://raw.githubusercontent.com/byJoey/cfnew/main/%E5%B0%91%E5%B9%B4%E4%BD%A0%E7%9B%B8%E4%BF%A1%E5%85%89%E5%90%97",
			CommitAPIURL: "https://api.github.com/repos/byJoey/cfnew/commits?path=%E5%B0%91%E5%B9%B4%E4%BD%A0%E7%9B%B8%E4%BF%A1%E5%85%89%E5%90%97&per_page=1",
			DefaultVars:  []string{"u", "d"},
			SecretVar:    "u",
			// The artifact references `window`, which worker runtimes lack.
			NeedsGlobalPolyfill: true,
		},
	}
}
