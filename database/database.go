package database

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fulldump/tabledb/doctable"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

type Config struct {
	Dir string
}

type Database struct {
	config *Config
	status string
	Tables map[string]*doctable.DocTable
	exit   chan struct{}
}

func NewDatabase(config *Config) *Database {
	db := &Database{
		config: config,
		status: StatusOpening,
		Tables: map[string]*doctable.DocTable{},
		exit:   make(chan struct{}),
	}

	return db
}

func (db *Database) GetStatus() string {
	return db.status
}

func (db *Database) CreateTable(name string) (*doctable.DocTable, error) {

	_, exists := db.Tables[name]
	if exists {
		return nil, fmt.Errorf("table '%s' already exists", name)
	}

	filename := path.Join(db.config.Dir, name)
	table, err := doctable.OpenDocTable(filename)
	if err != nil {
		return nil, err
	}

	db.Tables[name] = table

	return table, nil
}

func (db *Database) DropTable(name string) error {

	table, exists := db.Tables[name]
	if !exists {
		return fmt.Errorf("table '%s' not found", name)
	}

	delete(db.Tables, name)

	return table.Drop()
}

// Load opens every journal under the data directory. The table name is the
// filename relative to the directory.
func (db *Database) Load() error {

	fmt.Printf("Loading database %s...\n", db.config.Dir) // todo: move to logger
	dir := db.config.Dir
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}
	err = filepath.WalkDir(dir, func(filename string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := filename
		name = strings.TrimPrefix(name, dir)
		name = strings.TrimPrefix(name, "/")

		t0 := time.Now()
		table, err := doctable.OpenDocTable(filename)
		if err != nil {
			fmt.Printf("ERROR: open table '%s': %s\n", filename, err.Error()) // todo: move to logger
			return err
		}
		fmt.Println(name, table.Len(), time.Since(t0)) // todo: move to logger

		db.Tables[name] = table

		return nil
	})

	if err != nil {
		db.status = StatusClosing
		return err
	}

	db.status = StatusOperating

	return nil
}

func (db *Database) Start() error {

	go db.Load()

	<-db.exit

	return nil
}

func (db *Database) Stop() error {

	defer close(db.exit)

	db.status = StatusClosing

	var lastErr error
	for name, table := range db.Tables {
		fmt.Printf("Closing '%s'...\n", name)
		err := table.Close()
		if err != nil {
			fmt.Printf("ERROR: close(%s): %s", name, err.Error())
			lastErr = err
		}
	}

	return lastErr
}
