package config

import "github.com/spf13/pflag"

// Overrides are command-line values that take priority over the file.
type Overrides struct {
	ConfigPath string
	BasePath   string
	Format     string
	FPS        int
	Background string
	LogLevel   string
	LogFile    string
	Debug      bool

	flags *pflag.FlagSet
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *pflag.FlagSet) *Overrides {
	o := &Overrides{flags: fs}
	fs.StringVarP(&o.ConfigPath, "config", "c", "", "path to config file")
	fs.StringVarP(&o.BasePath, "base", "b", "", "directory or http(s) URL holding the model files")
	fs.StringVarP(&o.Format, "format", "f", "", "model format: obj or glb")
	fs.IntVar(&o.FPS, "fps", 0, "frames per second")
	fs.StringVar(&o.Background, "bg", "", "background color, e.g. #bfe3dd")
	fs.StringVar(&o.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&o.LogFile, "log-file", "", "log file path")
	fs.BoolVar(&o.Debug, "debug", false, "enable debug logging")
	return o
}

// Apply copies the flags that were set onto cfg.
func (o *Overrides) Apply(cfg *Config) {
	if o.changed("base") {
		cfg.Viewer.BasePath = o.BasePath
	}
	if o.changed("format") {
		cfg.Viewer.Format = o.Format
	}
	if o.changed("fps") && o.FPS > 0 {
		cfg.Viewer.FPS = o.FPS
	}
	if o.changed("bg") {
		cfg.Viewer.Background = o.Background
	}
	if o.changed("log-level") {
		cfg.Logging.Level = o.LogLevel
	}
	if o.changed("log-file") {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
}

func (o *Overrides) changed(name string) bool {
	if o.flags == nil {
		return false
	}
	return o.flags.Changed(name)
}
