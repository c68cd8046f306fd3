package enums

import "fmt"

// RecipientType says which side of the marketplace a notification targets.
type RecipientType string

const (
	RecipientTypeUser   RecipientType = "user"
	RecipientTypeVendor RecipientType = "vendor"
)

var validRecipientTypes = []RecipientType{
	RecipientTypeUser,
	RecipientTypeVendor,
}

// String implements fmt.Stringer.
func (r RecipientType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecipientType.
func (r RecipientType) IsValid() bool {
	for _, candidate := range validRecipientTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecipientType converts raw input into a RecipientType.
func ParseRecipientType(value string) (RecipientType, error) {
	for _, candidate := range validRecipientTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recipient type %q", value)
}
