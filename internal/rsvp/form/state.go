package form

// State is the submission modal state. Exactly one of Idle, Submitting,
// Succeeded and Failed.
type State interface {
	isState()
}

type Idle struct{}

type Submitting struct{}

type Succeeded struct {
	ID string
}

type Failed struct {
	Err     error
	Message string
}

func (Idle) isState()       {}
func (Submitting) isState() {}
func (Succeeded) isState()  {}
func (Failed) isState()     {}

const (
	TitleSubmitting = "Submitting RSVP..."
	TitleSucceeded  = "RSVP Received!"
	TitleFailed     = "Oops!"

	BodySubmitting = "Please wait while we save your response."
	BodySucceeded  = "Thank you for your RSVP! We can't wait to celebrate with you."

	MessageMissingFields = "Please fill in all required fields."
	MessageDefaultError  = "Failed to submit RSVP. Please try again."
)

// Title returns the modal heading for s. Idle has none.
func Title(s State) string {
	switch s.(type) {
	case Submitting:
		return TitleSubmitting
	case Succeeded:
		return TitleSucceeded
	case Failed:
		return TitleFailed
	default:
		return ""
	}
}

func Body(s State) string {
	switch st := s.(type) {
	case Submitting:
		return BodySubmitting
	case Succeeded:
		return BodySucceeded
	case Failed:
		return st.Message
	default:
		return ""
	}
}
