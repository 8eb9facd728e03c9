package player

// MediaErrorKind mirrors the browser media element error codes.
type MediaErrorKind int

const (
	MediaErrAborted MediaErrorKind = iota + 1
	MediaErrNetwork
	MediaErrDecode
	MediaErrUnsupported
)

// userMessage maps each media error to the string shown in the feed UI.
func (k MediaErrorKind) userMessage() string {
	switch k {
	case MediaErrAborted:
		return "Playback was interrupted"
	case MediaErrNetwork:
		return "Network error while loading video"
	case MediaErrDecode:
		return "This video could not be decoded"
	case MediaErrUnsupported:
		return "This video format is not supported"
	default:
		return "Unable to play this video"
	}
}

// ErrUnableToPlay is surfaced after autoplay retries are exhausted.
const ErrUnableToPlay = "Unable to play this video"
