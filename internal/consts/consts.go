package consts

const (
	GeekBaseURL = "https://geekai.co/api"
	TuziBaseURL = "https://api.tu-zi.com"
	V3BaseUrl   = "https://api.gpt.ge"
)

type ModelSupplier string

const (
	Geek ModelSupplier = "geek"
	Tuzi ModelSupplier = "tuzi"
	V3   ModelSupplier = "v3"
)

func (m ModelSupplier) String() string {
	return string(m)
}

func (m ModelSupplier) BaseURL() string {
	switch m {
	case Geek:
		return GeekBaseURL
	case Tuzi:
		return TuziBaseURL
	case V3:
		return V3BaseUrl
	default:
		return ""
	}
}

type Model string

const (
	GPTImage1  Model = "gpt-image-1"
	FlashImage Model = "gemini-2.5-flash-image"
	KlingVideo Model = "kling-video"
)

func (m Model) String() string {
	return string(m)
}

type TaskClass string

const (
	ClassImage TaskClass = "image"
	ClassVideo TaskClass = "video"
)

func (c TaskClass) String() string {
	return string(c)
}

func (c TaskClass) Valid() bool {
	return c == ClassImage || c == ClassVideo
}

type Event int

const (
	EventResult Event = iota + 1
	EventProgress
)
