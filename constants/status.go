package constants

// Outcome is the result of admitting one document.
type Outcome string

// Stable values (printed by the CLI and used as metric labels).
const (
	OutcomeAdmitted             Outcome = "admitted"
	OutcomeDuplicate            Outcome = "duplicate"
	OutcomeAdmittedWithoutDates Outcome = "admitted_without_dates"
	OutcomeFailed               Outcome = "failed"
)

// Message is the human text shown for an outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeAdmitted:
		return "document stored"
	case OutcomeDuplicate:
		return "document already stored"
	case OutcomeAdmittedWithoutDates:
		return "document stored, validity dates not found"
	default:
		return "document could not be processed"
	}
}
