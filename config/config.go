// Package config implements the renderer's configuration surface,
// loadable either as in-code functional options or from a YAML file,
// the way gazed-vu loads engine configuration from YAML with
// gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options mirrors table field for field.
type Options struct {
	TargetFPS          int  `yaml:"target_fps"`
	UseAlternateScreen bool `yaml:"use_alternate_screen"`
	UseMouse           bool `yaml:"use_mouse"`
	UseMouseMovement   bool `yaml:"use_mouse_movement"`
	UseKittyKeyboard   bool `yaml:"use_kitty_keyboard"`
	ExitOnCtrlC        bool `yaml:"exit_on_ctrl_c"`
	UseThread          bool `yaml:"use_thread"`
	RespectAlpha       bool `yaml:"respect_alpha"`
}

// Default returns the baseline options: 60fps, alternate screen, ctrl-c
// handling and the I/O worker thread on, nothing else enabled.
func Default() Options {
	return Options{
		TargetFPS:          60,
		UseAlternateScreen: true,
		ExitOnCtrlC:        true,
		UseThread:          true,
	}
}

// Option mutates Options in place; Apply folds a list of them over a
// base, the functional-options half of construction surface.
type Option func(*Options)

func WithTargetFPS(fps int) Option       { return func(o *Options) { o.TargetFPS = fps } }
func WithAlternateScreen(v bool) Option  { return func(o *Options) { o.UseAlternateScreen = v } }
func WithMouse(v bool) Option            { return func(o *Options) { o.UseMouse = v } }
func WithMouseMovement(v bool) Option    { return func(o *Options) { o.UseMouseMovement = v } }
func WithKittyKeyboard(v bool) Option    { return func(o *Options) { o.UseKittyKeyboard = v } }
func WithExitOnCtrlC(v bool) Option      { return func(o *Options) { o.ExitOnCtrlC = v } }
func WithThread(v bool) Option           { return func(o *Options) { o.UseThread = v } }
func WithRespectAlpha(v bool) Option     { return func(o *Options) { o.RespectAlpha = v } }

// Apply folds opts over Default().
func Apply(opts ...Option) Options {
	o := Default()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load parses a YAML file into Options, starting from Default() so an
// omitted field keeps its default rather than zeroing out.
func Load(path string) (Options, error) {
	o := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return o, o.Validate()
}

// Validate clamps target_fps into a sane range and rejects
// use_mouse_movement without use_mouse, per the ambient-stack
// expansion's configuration contract.
func (o *Options) Validate() error {
	if o.TargetFPS <= 0 {
		o.TargetFPS = 60
	}
	if o.TargetFPS > 240 {
		o.TargetFPS = 240
	}
	if o.UseMouseMovement && !o.UseMouse {
		return fmt.Errorf("config: use_mouse_movement requires use_mouse")
	}
	return nil
}
