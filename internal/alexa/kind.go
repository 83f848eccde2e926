package alexa

// Kind is the closed set of events the skill reacts to.
type Kind int

const (
	KindUnknown Kind = iota
	KindLaunch
	KindDateTime
	KindHelp
	KindCancelStop
	KindFallback
	KindSessionEnded
)

func (k Kind) String() string {
	switch k {
	case KindLaunch:
		return "launch"
	case KindDateTime:
		return "date_time"
	case KindHelp:
		return "help"
	case KindCancelStop:
		return "cancel_stop"
	case KindFallback:
		return "fallback"
	case KindSessionEnded:
		return "session_ended"
	default:
		return "unknown"
	}
}

// Kinds lists every Kind, KindUnknown included.
func Kinds() []Kind {
	return []Kind{KindUnknown, KindLaunch, KindDateTime, KindHelp, KindCancelStop, KindFallback, KindSessionEnded}
}

// Classify maps an envelope to its Kind.
func Classify(env *RequestEnvelope) Kind {
	if env == nil {
		return KindUnknown
	}
	switch env.Request.Type {
	case RequestLaunch:
		return KindLaunch
	case RequestSessionEnded:
		return KindSessionEnded
	case RequestIntent:
		switch env.IntentName() {
		case IntentDateTime:
			return KindDateTime
		case IntentHelp:
			return KindHelp
		case IntentCancel, IntentStop:
			return KindCancelStop
		case IntentFallback:
			return KindFallback
		}
	}
	return KindUnknown
}
