package status

// Status is the lifecycle state of a single segment. It is stored as an
// int32 so workers can claim segments with compare-and-swap.
type Status = int32

const (
	Waiting Status = iota
	Downloading
	Downloaded
)

// String returns a human readable name for s.
func String(s Status) string {
	switch s {
	case Waiting:
		return "waiting"
	case Downloading:
		return "downloading"
	case Downloaded:
		return "downloaded"
	default:
		return "unknown"
	}
}
