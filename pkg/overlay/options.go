package overlay

// DefaultMaxWidth is the popup's max-width unless the caller overrides it
const DefaultMaxWidth = "260px"

// Options configures a popup. The zero value means "use defaults"; caller
// supplied values win over computed defaults.
type Options struct {
	// CloseButton renders a close button inside the popup
	CloseButton bool

	// CloseOnClick closes the popup when the user clicks outside it
	CloseOnClick bool

	// MaxWidth is a CSS length constraining the popup width
	MaxWidth string
}

// withDefaults fills unset fields with the default configuration
func (o Options) withDefaults() Options {
	if o.MaxWidth == "" {
		o.MaxWidth = DefaultMaxWidth
	}
	return o
}
