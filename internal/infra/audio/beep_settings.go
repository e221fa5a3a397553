package audio

// BeepSettings configures the speaker backend.
type BeepSettings struct {
	SampleRate int `mapstructure:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs   int `mapstructure:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	// MaxMB bounds the size of a downloaded media file.
	MaxMB      int `mapstructure:"max_mb" default:"64" validate:"gte=1,lte=1024"`
	TimeoutSec int `mapstructure:"timeout_sec" default:"30" validate:"gte=1,lte=600"`
}
