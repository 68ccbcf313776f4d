package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	devenv "flightscraper/dev/env"
	"flightscraper/internal/snapshot"
	configlibsql "flightscraper/lib/configutil/libsql"
)

const archiveFile = "archive.db"

// searchTemplate is the search run by the live site tests, dates must be in the future.
const searchTemplate = `{
	// an IATA code listed by "edreams-cli iata"
	origin: "MAD",
	from: "2030-03-01",
	to: "2030-03-10",
}
`

func resolveState(filename string) (string, error) {
	return devenv.ResolvePath(filepath.Join("<dev_state>", filename))
}

// CreateArchiveDB creates the sqlite file the archive section of config.json5 can point
// to with `file: "<dev_state>/archive.db"`.
func CreateArchiveDB() error {
	path, err := resolveState(archiveFile)
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	db, err := configlibsql.OpenFile(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return snapshot.EnsureSchema(context.Background(), db)
}

func CreateSearchTemplate() error {
	path, err := resolveState("edreams_search.json5")
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("search config already created at", path)
		return nil
	}

	fmt.Println("creating search config at", path)
	return os.WriteFile(path, []byte(searchTemplate), 0600)
}

func PrintConfigLocations() {
	slog.Info("live site tests read dev/.state/edreams_search.json5 and skip when it is missing, edit it to change the search they run.")
}
