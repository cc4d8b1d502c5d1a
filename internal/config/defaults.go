package config

const (
	defaultConfigPath       = "~/.config/xhsvideo/config.toml"
	localConfigName         = "xhsvideo.toml"
	defaultWorkDir          = "."
	defaultCanvasWidth      = 1080
	defaultCanvasHeight     = 1440
	defaultFrameRate        = 24
	defaultVideoBitrate     = "8000k"
	defaultProvider         = ProviderTranslate
	defaultLanguage         = "zh-CN"
	defaultTranslateTLD     = "com"
	defaultNarrationTimeout = 30
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultFFmpegTimeout    = 1800
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultPublishPrefix    = "renders"
)

// Narration providers.
const (
	ProviderTranslate   = "translate"
	ProviderGoogleCloud = "google_cloud"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
		},
		Canvas: Canvas{
			Width:        defaultCanvasWidth,
			Height:       defaultCanvasHeight,
			FrameRate:    defaultFrameRate,
			VideoBitrate: defaultVideoBitrate,
		},
		Narration: Narration{
			Provider:       defaultProvider,
			Language:       defaultLanguage,
			TranslateTLD:   defaultTranslateTLD,
			TimeoutSeconds: defaultNarrationTimeout,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultFFmpegTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Publish: Publish{
			Prefix: defaultPublishPrefix,
		},
	}
}
