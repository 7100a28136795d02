package service

import (
	"errors"

	"github.com/fulldump/tabledb/doctable"
)

var ErrorTableNotFound = errors.New("table not found")

type Servicer interface {
	CreateTable(name string) (*doctable.DocTable, error)
	GetTable(name string) (*doctable.DocTable, error)
	ListTables() map[string]*doctable.DocTable
	DeleteTable(name string) error
}
