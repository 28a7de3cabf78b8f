package domain

// JavaTierThreshold is the required java major version from which the modern runtime is used
const JavaTierThreshold = 16

// Settings are the process-wide launch defaults
type Settings struct {
	Java8Path      string // Runtime for versions requiring java < 16
	Java17Path     string // Runtime for versions requiring java >= 16
	CustomJavaArgs []string
	Memory         MemorySettings
	GameResolution WindowSize
	Hooks          Hooks
	HookTimeout    int      // Seconds; 0 disables the timeout
	Profiles       []string // Known profile directories
}

// DefaultSettings returns settings with no runtimes configured
func DefaultSettings() Settings {
	return Settings{
		Memory:         DefaultMemory(),
		GameResolution: DefaultResolution(),
	}
}

// JavaVersion is the runtime requirement declared by a version
type JavaVersion struct {
	Component    string
	MajorVersion int
}

// VersionInfo is the launch-relevant part of a game version record
type VersionInfo struct {
	ID          string
	JavaVersion *JavaVersion // Nil when the version predates the requirement field
	MainClass   string
	Classpath   []string // Entries relative to the profile directory or absolute
}

// RequiredJavaMajor returns the declared major java version, or 8 when none is declared
func (v *VersionInfo) RequiredJavaMajor() int {
	if v == nil || v.JavaVersion == nil {
		return 8
	}
	return v.JavaVersion.MajorVersion
}

// Credentials identify the player passed to the game process
type Credentials struct {
	Username    string
	ID          string // Player UUID
	AccessToken string
}
