package scoring

import "fmt"

// ErrorCode is the stable machine-readable code of a comparison input error.
type ErrorCode string

const (
	CodeInsufficientVendors ErrorCode = "INSUFFICIENT_VENDORS"
	CodeInvalidRequirements ErrorCode = "INVALID_REQUIREMENTS"
	CodeInvalidWeights      ErrorCode = "INVALID_WEIGHTS"
	CodeMalformedVendor     ErrorCode = "MALFORMED_VENDOR"
	CodeUnknownProfile      ErrorCode = "UNKNOWN_PROFILE"
)

// InputError is implemented by every validation failure the engine reports.
// None of them are retryable: the same input always fails the same way.
type InputError interface {
	error
	Code() ErrorCode
	Field() string
}

// InsufficientVendorsError reports fewer than MinVendors candidates.
type InsufficientVendorsError struct {
	Count int
}

func (e *InsufficientVendorsError) Error() string {
	return fmt.Sprintf("at least %d vendors are required for a comparison, got %d", MinVendors, e.Count)
}

func (e *InsufficientVendorsError) Code() ErrorCode { return CodeInsufficientVendors }
func (e *InsufficientVendorsError) Field() string   { return "vendors" }

// InvalidRequirementsError reports a missing or out-of-range requirement.
type InvalidRequirementsError struct {
	FieldName string
	Reason    string
}

func (e *InvalidRequirementsError) Error() string {
	return fmt.Sprintf("invalid requirements.%s: %s", e.FieldName, e.Reason)
}

func (e *InvalidRequirementsError) Code() ErrorCode { return CodeInvalidRequirements }
func (e *InvalidRequirementsError) Field() string   { return "requirements." + e.FieldName }

// InvalidWeightsError reports a weight map that cannot rank anything.
type InvalidWeightsError struct {
	Criterion string
	Reason    string
}

func (e *InvalidWeightsError) Error() string {
	if e.Criterion == "" {
		return fmt.Sprintf("invalid weights: %s", e.Reason)
	}
	return fmt.Sprintf("invalid weight %q: %s", e.Criterion, e.Reason)
}

func (e *InvalidWeightsError) Code() ErrorCode { return CodeInvalidWeights }

func (e *InvalidWeightsError) Field() string {
	if e.Criterion == "" {
		return "requirements.weights"
	}
	return "requirements.weights." + e.Criterion
}

// MalformedVendorError reports a vendor attribute that cannot be scored.
type MalformedVendorError struct {
	Index     int
	Vendor    string
	FieldName string
	Reason    string
}

func (e *MalformedVendorError) Error() string {
	if e.Vendor == "" {
		return fmt.Sprintf("vendor #%d: %s %s", e.Index+1, e.FieldName, e.Reason)
	}
	return fmt.Sprintf("vendor %q: %s %s", e.Vendor, e.FieldName, e.Reason)
}

func (e *MalformedVendorError) Code() ErrorCode { return CodeMalformedVendor }

func (e *MalformedVendorError) Field() string {
	return fmt.Sprintf("vendors[%d].%s", e.Index, e.FieldName)
}

// UnknownProfileError reports a requirements.profile that is not configured.
type UnknownProfileError struct {
	Profile string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("unknown weight profile %q", e.Profile)
}

func (e *UnknownProfileError) Code() ErrorCode { return CodeUnknownProfile }
func (e *UnknownProfileError) Field() string   { return "requirements.profile" }
