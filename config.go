package binpac

// Config is the compiler configuration table (§6): it travels with a
// compilation from construction through to the emitted module, and is the
// struct a driver loads from a TOML or YAML file before calling [Compile].
type Config struct {
	// Debug emits verbose trace calls tagged binpac/binpac-verbose/
	// binpac-trace in the generated IR; higher levels are more verbose.
	Debug int `toml:"debug" yaml:"debug"`

	// Profile emits profiler start/stop around each parse function.
	Profile int `toml:"profile" yaml:"profile"`

	// GenerateParsers controls whether parse entry points are registered
	// with a real function or left null in the parser descriptor.
	GenerateParsers bool `toml:"generate_parsers" yaml:"generate_parsers"`

	// GenerateComposers controls whether compose entry points are
	// registered with a real function or left null.
	GenerateComposers bool `toml:"generate_composers" yaml:"generate_composers"`

	// Verify runs the IR verifier before Compile returns the module, if
	// the builder passed to Compile implements one.
	Verify bool `toml:"verify" yaml:"verify"`

	// LibDirsPac2 and LibDirsHLT are library import search paths consumed
	// by the AST builder upstream of this package; Compile does not read
	// them itself, but carries them through so a driver can round-trip a
	// config file without losing fields it doesn't otherwise understand.
	LibDirsPac2 []string `toml:"libdirs_pac2" yaml:"libdirs_pac2,omitempty"`
	LibDirsHLT  []string `toml:"libdirs_hlt" yaml:"libdirs_hlt,omitempty"`
}

// DefaultConfig returns the configuration Compile uses when no [Option]
// overrides it: both parse and compose entry points generated, debug and
// profiling off, no verification pass.
func DefaultConfig() Config {
	return Config{
		GenerateParsers:   true,
		GenerateComposers: true,
	}
}

// Option is a configuration setting for [Compile].
type Option struct{ apply func(*Config) }

// WithDebug sets the trace verbosity level.
func WithDebug(level int) Option {
	return Option{func(c *Config) { c.Debug = level }}
}

// WithProfile sets the profiling verbosity level.
func WithProfile(level int) Option {
	return Option{func(c *Config) { c.Profile = level }}
}

// WithGenerateParsers toggles whether parse entry points are registered.
func WithGenerateParsers(generate bool) Option {
	return Option{func(c *Config) { c.GenerateParsers = generate }}
}

// WithGenerateComposers toggles whether compose entry points are
// registered.
func WithGenerateComposers(generate bool) Option {
	return Option{func(c *Config) { c.GenerateComposers = generate }}
}

// WithVerify toggles the post-compile IR verification pass.
func WithVerify(verify bool) Option {
	return Option{func(c *Config) { c.Verify = verify }}
}

// WithLibDirsPac2 sets the pac2 library search paths.
func WithLibDirsPac2(dirs []string) Option {
	return Option{func(c *Config) { c.LibDirsPac2 = dirs }}
}

// WithLibDirsHLT sets the HILTI library search paths.
func WithLibDirsHLT(dirs []string) Option {
	return Option{func(c *Config) { c.LibDirsHLT = dirs }}
}
