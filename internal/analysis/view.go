package analysis

type View int

const (
	ViewPlaceholder View = iota
	ViewLoading
	ViewResults
)

func (v View) String() string {
	switch v {
	case ViewPlaceholder:
		return "placeholder"
	case ViewLoading:
		return "loading"
	case ViewResults:
		return "results"
	default:
		return "unknown"
	}
}

// SelectView picks the panel for an attempt. A failed attempt falls back to
// the placeholder; its reason is reported through the session notifier.
func SelectView(a Attempt) View {
	switch a.Status {
	case StatusSucceeded:
		return ViewResults
	case StatusPending:
		return ViewLoading
	default:
		return ViewPlaceholder
	}
}
