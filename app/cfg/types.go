package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath   string
	SeedFile string
	NoSeed   bool

	// Server
	Port string
	CORS bool

	// Feed loading
	RequestTimeout  time.Duration
	ValidateTimeout time.Duration
	FetchTimeout    time.Duration
	MaxEpisodes     int
	UserAgent       string

	// Background refresh
	RefreshInterval time.Duration
	WorkerCount     int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
