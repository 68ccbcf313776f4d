package config

import (
	"os"

	"flightscraper/internal/airtable"
	"flightscraper/internal/browser"
	"flightscraper/internal/iata"
	"flightscraper/internal/notify"
	"flightscraper/internal/scrapers/edreams"
	"flightscraper/lib/configutil"
	configlibsql "flightscraper/lib/configutil/libsql"
)

// Config is the configuration of the scraper cli, every field is optional.
type Config struct {
	IataUrl string `json:"iata_url"`
	// OutputDir is where snapshot files are written, `<dev_state>` paths are resolved
	// into dev/.state.
	OutputDir string               `json:"output_dir"`
	Edreams   edreams.Config       `json:"edreams"`
	Browser   browser.ChromeConfig `json:"browser"`
	Archive   configlibsql.Struct  `json:"archive"`
	Airtable  airtable.Config      `json:"airtable"`
	Smtp      notify.SmtpConfig    `json:"smtp"`
}

func Default() Config {
	return Config{
		IataUrl:   iata.DefaultSourceUrl,
		OutputDir: ".",
		Edreams:   edreams.DefaultConfig(),
	}
}

// Load reads `path` (and its .local override) filling the missing fields with
// defaults. A missing file is the default configuration.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	return configutil.WithDefaults(cfg, Default())
}
