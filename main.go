package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/dot5enko/simple-hash-db/manager"
)

func main() {

	storage := flag.String("storage", "./data/tables", "folder holding table files")
	exports := flag.String("exports", "./data/exported", "folder for EXPORT and IMPORT files")
	memory := flag.Bool("memory", false, "keep new tables in memory only")
	seqURL := flag.String("seq", "", "Seq server url, e.g. http://localhost:5341")
	debug := flag.Bool("debug", false, "dump every result")

	flag.Parse()

	logger, closeLog := setupLogger(os.Stderr, *seqURL, *debug)
	defer closeLog()

	slog.SetDefault(logger)

	m := manager.New(manager.ManagerConfig{
		PathToStorage: *storage,
		Persistent:    !*memory,
		ExportPath:    *exports,
		Logger:        logger,
	})

	if loadErr := m.LoadTablesFromDisk(); loadErr != nil {
		logger.Error("unable to load tables", "storage", *storage, "err", loadErr)
		closeLog()
		os.Exit(1)
	}

	c := &console{db: m, out: os.Stdout, debug: *debug}
	runErr := c.run(os.Stdin)

	if closeErr := m.Close(); closeErr != nil {
		logger.Error("unable to close tables", "err", closeErr)
	}

	if runErr != nil {
		logger.Error("console stopped", "err", runErr)
		closeLog()
		os.Exit(1)
	}
}
