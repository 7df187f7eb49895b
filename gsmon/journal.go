package gsmon

// Journaler describes an event logger.
type Journaler interface {
	Write(Event) error
}
