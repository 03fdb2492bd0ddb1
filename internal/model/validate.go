package model

// ValidationError reports invalid user input.
// Transport layers map this to 400.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// Validate checks that a normalized tag carries a uuid and a name.
func (t *Tag) Validate() error {
	if t.UUID == "" {
		return ValidationError("uuid is required")
	}
	if t.Name == "" {
		return ValidationError("name is required")
	}
	return nil
}
