package mjpeg

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Configuration bounds. Dimensions outside [MinDimension, MaxDimension]
// are rejected for both encoder dimensions and decoder maximums.
const (
	MinDimension = 16
	MaxDimension = 4096
	MinFPS       = 1
	MaxFPS       = 120
	MaxQuality   = 100

	// DefaultQuality is substituted when EncoderConfig.Quality is 0.
	DefaultQuality = 80
)

// EncoderConfig holds the validated parameters of an encoder session.
// The zero value of Bitrate selects automatic rate control; the zero value
// of Quality selects DefaultQuality. GOP is reserved and currently unused
// by the MJPEG coding path, where every frame is independently decodable.
type EncoderConfig struct {
	Width   uint32 `yaml:"width"`
	Height  uint32 `yaml:"height"`
	FPS     uint32 `yaml:"fps"`
	Bitrate uint32 `yaml:"bitrate"`
	Quality uint32 `yaml:"quality"`
	GOP     uint32 `yaml:"gop"`
}

// Validate checks the configuration against the encoder bounds. It is a
// pure predicate with no side effects.
func (c *EncoderConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: encoder config is nil", ErrInvalidParam)
	}
	if c.Width < MinDimension || c.Width > MaxDimension ||
		c.Height < MinDimension || c.Height > MaxDimension {
		return fmt.Errorf("%w: invalid resolution %dx%d", ErrInvalidParam, c.Width, c.Height)
	}
	if c.FPS < MinFPS || c.FPS > MaxFPS {
		return fmt.Errorf("%w: invalid fps %d", ErrInvalidParam, c.FPS)
	}
	if c.Quality > MaxQuality {
		return fmt.Errorf("%w: invalid quality %d (0-100)", ErrInvalidParam, c.Quality)
	}
	return nil
}

// effectiveQuality resolves the 0-means-default remapping.
func (c *EncoderConfig) effectiveQuality() uint32 {
	if c.Quality == 0 {
		return DefaultQuality
	}
	return c.Quality
}

// DecoderConfig holds the validated parameters of a decoder session.
// MaxWidth and MaxHeight bound the frames the session will reconstruct;
// OutputFormat selects the raw output layout (currently only FormatNV12).
type DecoderConfig struct {
	MaxWidth     uint32 `yaml:"max_width"`
	MaxHeight    uint32 `yaml:"max_height"`
	OutputFormat uint32 `yaml:"output_format"`
}

// Validate checks the configuration against the decoder bounds.
func (c *DecoderConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: decoder config is nil", ErrInvalidParam)
	}
	if c.MaxWidth < MinDimension || c.MaxWidth > MaxDimension ||
		c.MaxHeight < MinDimension || c.MaxHeight > MaxDimension {
		return fmt.Errorf("%w: invalid max resolution %dx%d", ErrInvalidParam, c.MaxWidth, c.MaxHeight)
	}
	return nil
}

// FrameInfo describes one decoded frame. It is a value type populated
// fresh on every successful decode call and holds no ownership.
type FrameInfo struct {
	Width     uint32
	Height    uint32
	Format    uint32
	Timestamp uint64
}

// ParseEncoderConfig decodes and validates an encoder configuration from
// YAML bytes. Callers embedding codec settings in larger configuration
// files handle the file reading themselves.
func ParseEncoderConfig(data []byte) (*EncoderConfig, error) {
	var cfg EncoderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse encoder config: %v", ErrInvalidParam, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseDecoderConfig decodes and validates a decoder configuration from
// YAML bytes.
func ParseDecoderConfig(data []byte) (*DecoderConfig, error) {
	var cfg DecoderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse decoder config: %v", ErrInvalidParam, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
