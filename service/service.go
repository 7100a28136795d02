package service

import (
	"errors"

	"github.com/fulldump/tabledb/database"
	"github.com/fulldump/tabledb/doctable"
)

type Service struct {
	db     *database.Database
	tables map[string]*doctable.DocTable
}

func NewService(db *database.Database) *Service {
	return &Service{
		db:     db,
		tables: db.Tables,
	}
}

var ErrorTableAlreadyExists = errors.New("table already exists")

func (s *Service) CreateTable(name string) (*doctable.DocTable, error) {

	_, exists := s.tables[name]
	if exists {
		return nil, ErrorTableAlreadyExists
	}

	return s.db.CreateTable(name)
}

func (s *Service) GetTable(name string) (*doctable.DocTable, error) {

	table, exists := s.tables[name]
	if !exists {
		return nil, ErrorTableNotFound
	}

	return table, nil
}

func (s *Service) ListTables() map[string]*doctable.DocTable {
	return s.tables
}

func (s *Service) DeleteTable(name string) error {

	_, exists := s.tables[name]
	if !exists {
		return ErrorTableNotFound
	}

	return s.db.DropTable(name)
}
